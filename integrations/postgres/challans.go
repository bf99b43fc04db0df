package postgres

import (
	"context"
	"fmt"

	"github.com/sahajtax/tdsret/extractor/common"
)

// ChallanExists checks the archive for a record with the same natural key.
func (db *DB) ChallanExists(ctx context.Context, key common.ChallanKey) (bool, string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		SELECT id FROM challans
		WHERE tan = $1 AND cin = $2 AND bsr_code = $3 AND challan_no = $4
	`, key.TAN, key.CIN, key.BSRCode, key.ChallanNo).Scan(&id)

	if err != nil {
		if err.Error() == "no rows in result set" {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to check challan: %w", err)
	}

	return true, id, nil
}

// CreateChallan inserts a new archive record.
func (db *DB) CreateChallan(ctx context.Context, c common.Challan) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO challans (
			source, tan, nature_of_payment, cin, bsr_code, challan_no,
			tender_date, mode_of_payment,
			tax_amount, surcharge, cess, interest, penalty, fee_234e, total_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`,
		c.Source, c.TAN, c.NatureOfPayment, c.CIN, c.BSRCode, c.ChallanNo,
		c.TenderDate, c.ModeOfPayment,
		c.TaxAmount, c.Surcharge, c.Cess, c.Interest, c.Penalty, c.Fee234E, c.TotalAmount,
	).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to create challan: %w", err)
	}

	return id, nil
}

// DeleteChallan removes an archive record by id.
func (db *DB) DeleteChallan(ctx context.Context, id string) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM challans WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete challan: %w", err)
	}
	return nil
}
