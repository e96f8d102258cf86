package sqlinline

// Provider keys are stored one row per provider; api_key is never logged.

const QSelectProviderKey = `--sql 3c1f0b7e-5a9d-4e62-b0d8-1f6a2c9e4d71
select api_key
from provider_keys
where provider = $1::text;
`

const QUpsertProviderKey = `--sql a47d92c3-18be-4f0a-9c55-6e0b3d2f8a19
insert into provider_keys (provider, api_key, source, updated_at)
values ($1::text, $2::text, coalesce(nullif($3::text, ''), 'manual'), now())
on conflict (provider) do update set
    api_key = excluded.api_key,
    source = excluded.source,
    updated_at = now();
`

const QDeleteProviderKey = `--sql e0b5c6d2-7f3a-4b91-8d24-59c1a7e3f680
delete from provider_keys
where provider = $1::text;
`
