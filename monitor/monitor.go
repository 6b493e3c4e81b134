// Package monitor checks the inventory for items running low and pushes a
// summary alert. It owns no schedule; whatever triggers it (a timer Lambda,
// a manual run) lives outside.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"medtracker/inventory"
	"medtracker/notify"
)

type lowStockLister interface {
	ListLowStock(ctx context.Context, threshold int) ([]inventory.Item, error)
}

// LowStockMonitor scans for items under the threshold and notifies every
// configured channel. Notification failures are independent per channel.
type LowStockMonitor struct {
	store     lowStockLister
	notifiers []notify.Notifier
	threshold int
}

func NewLowStockMonitor(store lowStockLister, threshold int, notifiers ...notify.Notifier) *LowStockMonitor {
	return &LowStockMonitor{
		store:     store,
		notifiers: notifiers,
		threshold: threshold,
	}
}

// Check runs one pass. It returns the low-stock items found (quantity
// ascending) so callers can render them, and an error only when the scan
// itself fails.
func (m *LowStockMonitor) Check(ctx context.Context) ([]inventory.Item, error) {
	items, err := m.store.ListLowStock(ctx, m.threshold)
	if err != nil {
		return nil, fmt.Errorf("low stock scan failed: %w", err)
	}

	if len(items) == 0 {
		slog.Info("MONITOR: No low stock items found", "threshold", m.threshold)
		return items, nil
	}

	subject := "Low Stock Alert"
	message := summaryMessage(items)

	for _, n := range m.notifiers {
		if err := n.Notify(ctx, subject, message); err != nil {
			slog.Error("MONITOR: Notification failed", "error", err)
		}
	}

	slog.Info("MONITOR: Sent notifications", "low_stock_items", len(items), "channels", len(m.notifiers))
	return items, nil
}

// summaryMessage renders the one-line alert plus a per-item breakdown with
// supplier contact details when present.
func summaryMessage(items []inventory.Item) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d items are low in stock: %s\n", len(items), strings.Join(names, ", "))
	for _, it := range items {
		fmt.Fprintf(&b, "- %s: %d remaining", it.Name, it.Quantity)
		if it.SupplierName != "" || it.SupplierPhone != "" {
			parts := make([]string, 0, 2)
			if it.SupplierName != "" {
				parts = append(parts, it.SupplierName)
			}
			if it.SupplierPhone != "" {
				parts = append(parts, formatPhone(it.SupplierPhone))
			}
			fmt.Fprintf(&b, " (Supplier: %s)", strings.Join(parts, " - "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// formatPhone makes an E.164 number readable. US/Canada numbers get the
// familiar grouping; everything else gets spaced digit groups.
func formatPhone(phone string) string {
	if phone == "" {
		return phone
	}
	if strings.HasPrefix(phone, "+1") && len(phone) == 12 {
		return fmt.Sprintf("+1 (%s) %s-%s", phone[2:5], phone[5:8], phone[8:])
	}
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) >= 10 {
		return fmt.Sprintf("+%s %s %s %s", digits[:2], digits[2:5], digits[5:8], digits[8:])
	}
	return phone
}
