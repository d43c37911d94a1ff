package problemrepository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/ports/secondary"
	"gitlab.com/codearena.net/internal/domain"
	querybuilder "gitlab.com/codearena.net/internal/utils"
)

var _ secondary.ProblemRepository = &problemRepo{}

type problemRepo struct {
	db     *sqlx.DB
	logger primary.Logger
	schema string
}

func New(db *sqlx.DB, logger primary.Logger, schema string) secondary.ProblemRepository {
	return &problemRepo{
		db:     db,
		logger: logger,
		schema: schema,
	}
}

// testCaseRow mirrors the test_cases table; input is jsonb
type testCaseRow struct {
	ID             uuid.UUID `db:"id"`
	ProblemID      string    `db:"problem_id"`
	Input          []byte    `db:"input"`
	ExpectedOutput string    `db:"expected_output"`
	IsHidden       bool      `db:"is_hidden"`
	OrderIndex     int       `db:"order_index"`
}

func (r problemRepo) ProblemExists(ctx context.Context, problemID string) (bool, error) {
	tbl := domain.GetProblemTable()
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s.%s WHERE %s = $1)", r.schema, tbl.TableName(), tbl.ID)

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, problemID); err != nil {
		return false, fmt.Errorf("failed to check problem: %w", err)
	}
	return exists, nil
}

// GetTestCases returns visible cases first, then hidden ones, each ordered by order_index
func (r problemRepo) GetTestCases(ctx context.Context, problemID string, includeHidden bool) ([]*domain.TestCase, error) {
	tbl := domain.GetTestCaseTable()
	qb := querybuilder.NewQueryBuilder(r.schema).
		Select(tbl.ID, tbl.ProblemID, tbl.Input, tbl.ExpectedOutput, tbl.IsHidden, tbl.OrderIndex).
		From(tbl.TableName()).
		Where(fmt.Sprintf("%s = ?", tbl.ProblemID), problemID)
	if !includeHidden {
		qb = qb.And(fmt.Sprintf("%s = ?", tbl.IsHidden), false)
	}
	query, args := qb.
		OrderBy(tbl.IsHidden, true).
		OrderBy(tbl.OrderIndex, true).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var rows []testCaseRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load test cases: %w", err)
	}

	testCases := make([]*domain.TestCase, 0, len(rows))
	for _, row := range rows {
		input, err := decodeInput(row.Input)
		if err != nil {
			r.logger.Error("Malformed test case input", "testCaseId", row.ID, "problemId", problemID, "error", err)
			return nil, fmt.Errorf("failed to decode input of test case %s: %w", row.ID, err)
		}
		testCases = append(testCases, &domain.TestCase{
			ID:             row.ID,
			ProblemID:      row.ProblemID,
			Input:          input,
			ExpectedOutput: row.ExpectedOutput,
			IsHidden:       row.IsHidden,
			OrderIndex:     row.OrderIndex,
		})
	}
	return testCases, nil
}

// decodeInput reads a jsonb input column. Numbers keep their literal form and a
// scalar is treated as a single input line.
func decodeInput(raw []byte) ([]interface{}, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []interface{}{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case nil:
		return []interface{}{}, nil
	case []interface{}:
		return v, nil
	default:
		return []interface{}{v}, nil
	}
}
