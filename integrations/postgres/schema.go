package postgres

import (
	"context"
	"fmt"
)

const ddl = `
-- Challan archive with natural key (tan, cin, bsr_code, challan_no).
-- Serial numbers repeat across BSR branches, so the full composite key
-- is required for deduplication.
CREATE TABLE IF NOT EXISTS challans (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    source VARCHAR(255) NOT NULL,
    tan VARCHAR(20) NOT NULL,
    nature_of_payment VARCHAR(10) NOT NULL,
    cin VARCHAR(40) NOT NULL,
    bsr_code VARCHAR(7) NOT NULL,
    challan_no VARCHAR(20) NOT NULL,
    tender_date DATE,
    mode_of_payment VARCHAR(100) DEFAULT '',
    tax_amount NUMERIC(18,2) NOT NULL,
    surcharge NUMERIC(18,2) NOT NULL DEFAULT 0,
    cess NUMERIC(18,2) NOT NULL DEFAULT 0,
    interest NUMERIC(18,2) NOT NULL DEFAULT 0,
    penalty NUMERIC(18,2) NOT NULL DEFAULT 0,
    fee_234e NUMERIC(18,2) NOT NULL DEFAULT 0,
    total_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(tan, cin, bsr_code, challan_no)
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_challans_tan ON challans(tan);
CREATE INDEX IF NOT EXISTS idx_challans_section ON challans(nature_of_payment);
CREATE INDEX IF NOT EXISTS idx_challans_tender_date ON challans(tender_date);
`

// EnsureSchema creates the archive tables if they don't exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
