package view

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// WriteUsersTable prints the users panel as a terminal table.
func WriteUsersTable(w io.Writer, v UsersView) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Type", "Balance", "Address"})
	for _, c := range v.Cards {
		table.Append([]string{c.Name, c.Badge, c.Balance, c.Address})
	}
	table.Render()
}

// WriteTransactionsTable prints the history panel followed by its statistics.
func WriteTransactionsTable(w io.Writer, v TransactionsView) {
	if v.Empty {
		_, _ = io.WriteString(w, v.Placeholder+"\n")
	} else {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"ID", "Route", "Amount", "Fee", "Status", "Timestamp"})
		for _, it := range v.Items {
			table.Append([]string{it.ID, it.Route, it.Amount, it.Fee, it.Status, it.Timestamp})
		}
		table.Render()
	}

	stats := tablewriter.NewWriter(w)
	stats.SetHeader([]string{"Transactions", "Volume", "Average", "Fees"})
	stats.Append([]string{v.Stats.TotalTransactions, v.Stats.TotalVolume, v.Stats.AverageAmount, v.Stats.TotalFees})
	stats.Render()
}

// WriteRatesTable prints exchange rates.
func WriteRatesTable(w io.Writer, cards []RateCard) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Currency", "Rate", "Recommendation", "Savings vs 7-day avg"})
	for _, c := range cards {
		table.Append([]string{c.Currency, c.Rate, c.Recommendation, c.Savings})
	}
	table.Render()
}

// WriteVaultsTable prints the vaults grid.
func WriteVaultsTable(w io.Writer, v VaultsView) {
	if v.Empty {
		_, _ = io.WriteString(w, v.Placeholder+"\n")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Status", "Progress", "Remaining", "Total", "Guardians", "Pending"})
	for _, c := range v.Cards {
		table.Append([]string{c.ID, c.Name, c.Status, c.Progress, c.Remaining, c.Total, c.Guardians, c.PendingBadge})
	}
	table.Render()
}
