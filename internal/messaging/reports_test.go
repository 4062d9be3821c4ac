package messaging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trms/treasury-mock/internal/domain"
)

const redemptionCSV = `AccountID,BeneficiaryName,BeneficiaryAccount,Amount,Currency,Reference
ACC-001-USD,Jane Doe,GB29NWBK60161331926819,1000.00,USD,RED-1

ACC-004-EUR,John Roe,DE89370400440532013000,920.00,EUR,RED-2
ACC-001-USD,Broken Row,XX00,abc,USD,RED-3
ACC-001-USD,Short Row
ACC-001-USD,Odd Currency,XX01,10,ZZZ,RED-5
`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestProcessRedemptionReport(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.svc.opts.RedemptionReportsDir, "redemptions.csv", redemptionCSV)

	res, err := f.svc.ProcessRedemptionReport("redemptions.csv")
	require.NoError(t, err)

	assert.Equal(t, 5, res.TotalRedemptions)
	assert.Equal(t, 2, res.ProcessedCount)
	assert.Equal(t, 3, res.FailedCount)
	assert.Equal(t, "2000", res.TotalAmount.String())
	assert.Equal(t, "USD", res.Currency)
	assert.Len(t, res.Checksum, 16)
	assert.False(t, res.PreviouslyProcessed)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], "Line 5:")
	assert.Contains(t, res.Errors[1], "Line 6:")
	assert.Contains(t, res.Errors[2], "Line 7:")
	assert.Equal(t, "Processed 2 redemptions totaling 2000.00 USD. Failed: 3", res.Summary)
	assert.Equal(t, "PROCESSED", res.Redemptions[0].Status)

	again, err := f.svc.ProcessRedemptionReport("redemptions.csv")
	require.NoError(t, err)
	assert.True(t, again.PreviouslyProcessed)
	assert.Equal(t, res.Checksum, again.Checksum)
}

func TestProcessRedemptionReport_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		file    string
		wantErr error
	}{
		{"traversal", "../secrets.csv", domain.ErrInvalidInput},
		{"nested path", "sub/file.csv", domain.ErrInvalidInput},
		{"empty", "", domain.ErrInvalidInput},
		{"missing", "nope.csv", domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ProcessRedemptionReport(tt.file)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifyEODReports(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.svc.opts.EODReportsDir, "nested")
	f.svc.opts.EODReportsDir = dir

	res, err := f.svc.VerifyEODReports("2025-03-14")
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.False(t, res.IsComplete)
	assert.Equal(t, 4, res.FailedChecks)
	assert.Len(t, res.MissingReports, 4)

	writeFile(t, dir, "balance_report_2025-03-14.csv", "account,balance\nACC-1,10\n")
	writeFile(t, dir, "transaction_log_2025-03-14.csv", "id,amount\nTXN-1,5\n")
	writeFile(t, dir, "swift_reconciliation_2025-03-14.csv", "id,status\n")
	writeFile(t, dir, "settlement_report_2025-03-14.csv", "id\nSET-1\n")

	res, err = f.svc.VerifyEODReports("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalChecks)
	assert.Equal(t, 3, res.PassedChecks)
	assert.Equal(t, 1, res.FailedChecks)
	assert.Empty(t, res.MissingReports)
	assert.Equal(t, "EOD Verification: 3/4 checks passed. 1 issue(s) found", res.Summary)

	byName := map[string]domain.ReportCheck{}
	for _, c := range res.Checks {
		byName[c.ReportName] = c
	}
	assert.Equal(t, "WARNING", byName["swift_reconciliation_2025-03-14.csv"].Status)
	assert.Equal(t, "RECONCILIATION", byName["swift_reconciliation_2025-03-14.csv"].ReportType)
	assert.Equal(t, "SWIFT", byName["settlement_report_2025-03-14.csv"].ReportType)
	assert.Equal(t, "PASSED", byName["balance_report_2025-03-14.csv"].Status)
}

func TestVerifyEODReports_DefaultsAndValidation(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.VerifyEODReports("")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", res.ReportDate)

	_, err = f.svc.VerifyEODReports("../../etc")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
