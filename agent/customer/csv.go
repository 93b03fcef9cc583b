package customer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvColumns is the header layout of data/customers.csv.
var csvColumns = []string{
	"customer_id", "name", "email", "phone", "plan_type", "monthly_charge",
	"signup_date", "status", "total_spent", "support_tickets_count",
	"account_health_score", "tenure_months", "tier", "device", "purchase_date",
}

// LoadCSV parses a customers.csv stream into Customer rows. The first record
// must be the header above, in that order.
func LoadCSV(r io.Reader) ([]Customer, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	var customers []Customer
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		c, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		customers = append(customers, c)
	}

	return customers, nil
}

func validateHeader(header []string) error {
	if len(header) != len(csvColumns) {
		return fmt.Errorf("csv header has %d columns, want %d", len(header), len(csvColumns))
	}
	for i, col := range csvColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return fmt.Errorf("csv header column %d is %q, want %q", i, header[i], col)
		}
	}
	return nil
}

func parseRecord(record []string) (Customer, error) {
	if len(record) != len(csvColumns) {
		return Customer{}, fmt.Errorf("record has %d fields, want %d", len(record), len(csvColumns))
	}

	monthlyCharge, err := strconv.ParseFloat(strings.TrimSpace(record[5]), 64)
	if err != nil {
		return Customer{}, fmt.Errorf("invalid monthly_charge %q: %w", record[5], err)
	}
	totalSpent, err := strconv.ParseFloat(strings.TrimSpace(record[8]), 64)
	if err != nil {
		return Customer{}, fmt.Errorf("invalid total_spent %q: %w", record[8], err)
	}
	tickets, err := strconv.Atoi(strings.TrimSpace(record[9]))
	if err != nil {
		return Customer{}, fmt.Errorf("invalid support_tickets_count %q: %w", record[9], err)
	}
	health, err := strconv.Atoi(strings.TrimSpace(record[10]))
	if err != nil {
		return Customer{}, fmt.Errorf("invalid account_health_score %q: %w", record[10], err)
	}
	tenure, err := strconv.Atoi(strings.TrimSpace(record[11]))
	if err != nil {
		return Customer{}, fmt.Errorf("invalid tenure_months %q: %w", record[11], err)
	}

	return Customer{
		CustomerID:          strings.TrimSpace(record[0]),
		Name:                strings.TrimSpace(record[1]),
		Email:               strings.TrimSpace(record[2]),
		Phone:               strings.TrimSpace(record[3]),
		PlanType:            strings.TrimSpace(record[4]),
		MonthlyCharge:       monthlyCharge,
		SignupDate:          strings.TrimSpace(record[6]),
		Status:              strings.TrimSpace(record[7]),
		TotalSpent:          totalSpent,
		SupportTicketsCount: tickets,
		AccountHealthScore:  health,
		TenureMonths:        tenure,
		Tier:                strings.ToLower(strings.TrimSpace(record[12])),
		Device:              strings.TrimSpace(record[13]),
		PurchaseDate:        strings.TrimSpace(record[14]),
	}, nil
}
