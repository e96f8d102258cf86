package sqlinline

import (
	"testing"

	"engine/internal/infra"
)

func TestStatementsCarryUniqueMarkers(t *testing.T) {
	statements := map[string]string{
		"QCreateEngineSchema":         QCreateEngineSchema,
		"QUpsertBatchProject":         QUpsertBatchProject,
		"QUpdateBatchProjectDocument": QUpdateBatchProjectDocument,
		"QSelectBatchProject":         QSelectBatchProject,
		"QSelectCurrentBatchProject":  QSelectCurrentBatchProject,
		"QListBatchProjectIDs":        QListBatchProjectIDs,
		"QSelectProviderKey":          QSelectProviderKey,
		"QUpsertProviderKey":          QUpsertProviderKey,
		"QDeleteProviderKey":          QDeleteProviderKey,
	}
	seen := make(map[string]string, len(statements))
	for name, stmt := range statements {
		marker, body, err := infra.ExtractMarker(stmt)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if body == "" {
			t.Fatalf("%s: empty body", name)
		}
		if other, ok := seen[marker]; ok {
			t.Fatalf("%s reuses marker %s from %s", name, marker, other)
		}
		seen[marker] = name
	}
}
