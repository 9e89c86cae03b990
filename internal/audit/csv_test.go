package audit

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "siscof/pkg/domain"
)

func TestExportCSV(t *testing.T) {
	ts := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	actor := id.NewUserID()
	affected := id.NewUserID()
	unit := id.NewUnitID()

	entries := []Entry{
		{
			ID:             uuid.New(),
			Action:         ActionGranted,
			RoleName:       "pastor",
			AffectedUserID: affected,
			ActorID:        actor,
			UnitID:         unit,
			Timestamp:      ts,
		},
		{
			ID:        uuid.New(),
			Action:    ActionUnitCreated,
			ActorID:   actor,
			UnitID:    unit,
			Timestamp: ts.Add(time.Minute),
		},
	}

	data, err := ExportCSV(entries)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"id", "action", "role_name", "affected_user_id",
		"acting_user_id", "organizational_unit_id", "timestamp",
	}, records[0])

	grant := records[1]
	assert.Equal(t, "granted", grant[1])
	assert.Equal(t, "pastor", grant[2])
	assert.Equal(t, affected.String(), grant[3])
	assert.Equal(t, actor.String(), grant[4])
	assert.Equal(t, unit.String(), grant[5])
	assert.Equal(t, "2026-03-15T10:30:00Z", grant[6])

	unitCreated := records[2]
	assert.Equal(t, "unit_created", unitCreated[1])
	// No role or subject user on unit lifecycle rows.
	assert.Empty(t, unitCreated[2])
	assert.Empty(t, unitCreated[3])
}

func TestExportCSVEmpty(t *testing.T) {
	data, err := ExportCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(string(data)), "\n")+1)
}
