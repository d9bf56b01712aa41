package ledger

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/diewo77/go-purchases/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Feed sizes.
const (
	feedPayments  = 5
	feedPurchases = 3
	feedLimit     = 8
)

// ActivityKind tells which record an activity was built from.
type ActivityKind string

const (
	ActivityPayment  ActivityKind = "payment"
	ActivityPurchase ActivityKind = "purchase"
)

// Activity is one line of the recent activity feed.
type Activity struct {
	Kind         ActivityKind `json:"kind"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	RelativeTime string       `json:"relative_time"`
	Date         models.Date  `json:"date"`
}

// BuildActivityFeed merges the latest payments and purchases, newest first.
// On equal dates payments come before purchases.
func BuildActivityFeed(purchases []models.Purchase, payments []models.Payment, now time.Time) []Activity {
	pays := slices.Clone(payments)
	slices.SortStableFunc(pays, func(a, b models.Payment) int { return b.Date.Compare(a.Date.Time) })
	if len(pays) > feedPayments {
		pays = pays[:feedPayments]
	}
	recent := RecentPurchases(purchases, feedPurchases)

	feed := make([]Activity, 0, len(pays)+len(recent))
	for _, p := range pays {
		feed = append(feed, Activity{
			Kind:         ActivityPayment,
			Title:        "Payment Added - " + p.BillNumber,
			Description:  fmt.Sprintf("₹%s paid to %s", formatAmount(p.Amount), p.Supplier),
			RelativeTime: RelativeTime(p.Date, now),
			Date:         p.Date,
		})
	}
	for _, p := range recent {
		feed = append(feed, Activity{
			Kind:         ActivityPurchase,
			Title:        "New Purchase - " + p.BillNumber,
			Description:  fmt.Sprintf("%s from %s", p.Item, p.SupplierName),
			RelativeTime: RelativeTime(p.PurchaseDate, now),
			Date:         p.PurchaseDate,
		})
	}

	slices.SortStableFunc(feed, func(a, b Activity) int { return b.Date.Compare(a.Date.Time) })
	if len(feed) > feedLimit {
		feed = feed[:feedLimit]
	}
	return feed
}

// RelativeTime labels date by whole days elapsed before now.
// Weeks and months are floor divisions by 7 and 30. Future dates read as Today.
func RelativeTime(date models.Date, now time.Time) string {
	days := int(math.Floor(now.Sub(date.Time).Hours() / 24))
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	default:
		return fmt.Sprintf("%d months ago", days/30)
	}
}

var inr = message.NewPrinter(language.MustParse("en-IN"))

// FormatCurrency renders amount in rupees with Indian digit grouping and two decimals.
func FormatCurrency(amount decimal.Decimal) string {
	return "₹" + inr.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))
}

// formatAmount groups digits and keeps up to three decimals, dropping trailing zeros.
func formatAmount(amount decimal.Decimal) string {
	return inr.Sprint(number.Decimal(amount.InexactFloat64(), number.MaxFractionDigits(3)))
}
