package audit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	id "siscof/pkg/domain"
)

// csvHeader matches the column order compliance reviewers expect.
var csvHeader = []string{
	"id",
	"action",
	"role_name",
	"affected_user_id",
	"acting_user_id",
	"organizational_unit_id",
	"timestamp",
}

// ExportCSV renders entries verbatim into CSV bytes. Pure formatting: no
// filtering, no side effects. Callers filter through Publisher.List first.
func ExportCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range entries {
		record := []string{
			entry.ID.String(),
			string(entry.Action),
			entry.RoleName,
			userIDOrEmpty(entry.AffectedUserID),
			userIDOrEmpty(entry.ActorID),
			unitIDOrEmpty(entry.UnitID),
			entry.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func userIDOrEmpty(userID id.UserID) string {
	if userID.IsNil() {
		return ""
	}
	return userID.String()
}

func unitIDOrEmpty(unitID id.UnitID) string {
	if unitID.IsNil() {
		return ""
	}
	return unitID.String()
}
