package sqlinline

// QUpsertBatchProject stores a project document and marks it current,
// clearing the flag on every other row in the same statement.
const QUpsertBatchProject = `--sql 60ceb635-1518-4d1b-94f7-6d269f572d7e
with cleared as (
    update batch_projects
    set is_current = false
    where is_current and project_id <> $1::text
)
insert into batch_projects (project_id, document, extra, is_current, created_at, updated_at)
values ($1::text, $2::jsonb, coalesce($3::jsonb, '{}'::jsonb), true, now(), now())
on conflict (project_id) do update set
    document = excluded.document,
    extra = excluded.extra,
    is_current = true,
    updated_at = now();
`

// QUpdateBatchProjectDocument rewrites a project without touching the current
// pointer. Used by generation runs persisting approval resets.
const QUpdateBatchProjectDocument = `--sql 20f04a9b-3d0e-4d62-b558-c42cae274e07
update batch_projects
set document = $2::jsonb,
    extra = coalesce($3::jsonb, extra),
    updated_at = now()
where project_id = $1::text;
`

const QSelectBatchProject = `--sql 4f0c5398-ba4f-47d3-99f3-21af71bb1631
select document, extra
from batch_projects
where project_id = $1::text;
`

const QSelectCurrentBatchProject = `--sql 124a8734-705a-4234-9c9f-499466b37228
select document, extra
from batch_projects
where is_current
order by updated_at desc
limit 1;
`

const QListBatchProjectIDs = `--sql 41a80f7f-36ec-466a-9aad-c2325febbf17
select project_id
from batch_projects
order by created_at asc, project_id asc;
`
