package export

import (
	"encoding/csv"
	"io"

	"stockprices/internal/provider"
)

// DailyHeader is the column order of a daily prices CSV.
var DailyHeader = []string{"date", "open", "high", "low", "close", "adjusted_close", "volume"}

const dateLayout = "2006-01-02"

// WriteDailyCSV writes a header and one row per bar, in the order given.
func WriteDailyCSV(path string, bars []provider.DailyBar) error {
	return writeFile(path, func(f io.Writer) error {
		w := csv.NewWriter(f)
		if err := w.Write(DailyHeader); err != nil {
			return err
		}
		for _, b := range bars {
			if err := w.Write([]string{
				b.Date.Format(dateLayout),
				b.Open,
				b.High,
				b.Low,
				b.Close,
				b.AdjustedClose,
				b.Volume,
			}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}
