// Package reports aggregates evaluated invoice balances with an in-memory
// DuckDB database.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
)

// AgingRow is the outstanding amount of one status and aging bucket.
type AgingRow struct {
	Status   string       `json:"status"`
	Bucket   string       `json:"bucket"`
	Invoices int64        `json:"invoices"`
	Balance  models.Money `json:"balance"`
}

// CustomerExposure is the unpaid balance of one customer.
type CustomerExposure struct {
	CustomerID   string       `json:"customer_id"`
	CustomerName string       `json:"customer_name"`
	Invoices     int64        `json:"invoices"`
	Balance      models.Money `json:"balance"`
}

// Receivables summarizes unpaid invoices as of a day.
type Receivables struct {
	AsOf        models.Date        `json:"as_of"`
	Outstanding models.Money       `json:"outstanding"`
	Aging       []AgingRow         `json:"aging"`
	Customers   []CustomerExposure `json:"customers"`
}

// Reporter runs report queries on an in-memory DuckDB database.
type Reporter struct {
	db *sql.DB
}

// Open starts an in-memory DuckDB database.
func Open() (*Reporter, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging duckdb: %w", err)
	}
	return &Reporter{db: db}, nil
}

func (r *Reporter) Close() error {
	return r.db.Close()
}

const agingQuery = `SELECT status,
		CASE WHEN days_late = 0 THEN 'current'
			WHEN days_late <= 30 THEN '1-30'
			WHEN days_late <= 60 THEN '31-60'
			WHEN days_late <= 90 THEN '61-90'
			ELSE '90+' END AS bucket,
		COUNT(*), CAST(SUM(balance) AS BIGINT)
		FROM balances
		WHERE status <> 'paid'
		GROUP BY 1, 2
		ORDER BY 1, 2`

const customerQuery = `SELECT customer_id, ANY_VALUE(customer_name), COUNT(*), CAST(SUM(balance) AS BIGINT)
		FROM balances
		WHERE status <> 'paid'
		GROUP BY customer_id
		ORDER BY 4 DESC, 1`

// Receivables evaluates every invoice against its collections and groups the
// unpaid balances by status, aging bucket and customer.
func (r *Reporter) Receivables(ctx context.Context, invoices []models.Invoice, collections []models.Collection, asOf time.Time) (Receivables, error) {
	out := Receivables{AsOf: models.NewDate(asOf), Aging: []AgingRow{}, Customers: []CustomerExposure{}}

	// Temp tables live on one connection.
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return out, fmt.Errorf("acquiring duckdb connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `CREATE OR REPLACE TEMP TABLE balances (
		invoice_id VARCHAR, customer_id VARCHAR, customer_name VARCHAR,
		status VARCHAR, days_late INTEGER, balance BIGINT)`); err != nil {
		return out, fmt.Errorf("creating balances table: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), "DROP TABLE IF EXISTS balances"); err != nil {
			slog.Warn("failed to drop balances table", "error", err)
		}
	}()

	stmt, err := conn.PrepareContext(ctx, "INSERT INTO balances VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return out, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, inv := range invoices {
		b := billing.EvaluateBalance(inv, collections, asOf)
		if _, err := stmt.ExecContext(ctx, inv.ID, inv.CustomerID, inv.CustomerName, b.Status, b.DaysLate, int64(b.Balance)); err != nil {
			return out, fmt.Errorf("loading invoice %s: %w", inv.ID, err)
		}
	}

	rows, err := conn.QueryContext(ctx, agingQuery)
	if err != nil {
		return out, fmt.Errorf("querying aging: %w", err)
	}
	for rows.Next() {
		var row AgingRow
		var bal int64
		if err := rows.Scan(&row.Status, &row.Bucket, &row.Invoices, &bal); err != nil {
			rows.Close()
			return out, err
		}
		row.Balance = models.Money(bal)
		out.Outstanding += row.Balance
		out.Aging = append(out.Aging, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return out, err
	}

	rows, err = conn.QueryContext(ctx, customerQuery)
	if err != nil {
		return out, fmt.Errorf("querying customers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c CustomerExposure
		var bal int64
		if err := rows.Scan(&c.CustomerID, &c.CustomerName, &c.Invoices, &bal); err != nil {
			return out, err
		}
		c.Balance = models.Money(bal)
		out.Customers = append(out.Customers, c)
	}
	return out, rows.Err()
}
