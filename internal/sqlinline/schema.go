package sqlinline

// QCreateEngineSchema creates the tables the engine owns. It is idempotent and
// runs at startup when PROJECT_STORE=postgres.
const QCreateEngineSchema = `--sql 24740d5b-076a-4085-8438-863f86ecc677
create table if not exists batch_projects (
    project_id text primary key,
    document   jsonb not null,
    extra      jsonb not null default '{}'::jsonb,
    is_current boolean not null default false,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create index if not exists batch_projects_current_idx on batch_projects (is_current) where is_current;
create table if not exists provider_keys (
    provider   text primary key,
    api_key    text not null,
    source     text not null default 'manual',
    updated_at timestamptz not null default now()
);
`
