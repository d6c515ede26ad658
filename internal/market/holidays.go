package market

import "github.com/m09352000/my-stock-dashboard-sub000/internal/model"

// builtinHolidays lists scheduled weekday closures for markets the calendar
// library has no exchange data for. Later years come from config.
var builtinHolidays = map[model.Market][]string{
	model.MarketTW: {
		// 2024
		"2024-01-01", "2024-02-06", "2024-02-07", "2024-02-08", "2024-02-09",
		"2024-02-12", "2024-02-13", "2024-02-14", "2024-02-28", "2024-04-04",
		"2024-04-05", "2024-05-01", "2024-06-10", "2024-09-17", "2024-10-10",
		// 2025
		"2025-01-01", "2025-01-23", "2025-01-24", "2025-01-27", "2025-01-28",
		"2025-01-29", "2025-01-30", "2025-01-31", "2025-02-28", "2025-04-03",
		"2025-04-04", "2025-05-01", "2025-05-30", "2025-09-29", "2025-10-06",
		"2025-10-10", "2025-10-24", "2025-12-25",
		// 2026
		"2026-01-01", "2026-02-12", "2026-02-13", "2026-02-16", "2026-02-17",
		"2026-02-18", "2026-02-19", "2026-02-20", "2026-02-27", "2026-04-03",
		"2026-04-06", "2026-05-01", "2026-06-19", "2026-09-25", "2026-09-28",
		"2026-10-09", "2026-10-26", "2026-12-25",
	},
}
