package history

import "fmt"

var monthAbbrev = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// lastWeekOfMonth approximates the final epidemiological week of each
// month for axis labels.
var lastWeekOfMonth = [11]int{4, 8, 13, 17, 22, 26, 30, 35, 39, 43, 48}

// MonthOfWeek returns the month (1..12) an epidemiological week is shown
// under.
func MonthOfWeek(week int) int {
	for i, last := range lastWeekOfMonth {
		if week <= last {
			return i + 1
		}
	}
	return 12
}

// WeekLabel formats a week as "07 - Fev".
func WeekLabel(week int) string {
	return fmt.Sprintf("%02d - %s", week, monthAbbrev[MonthOfWeek(week)-1])
}
