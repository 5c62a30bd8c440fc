package export_test

import (
	"fmt"
	"os"

	"github.com/matzehuels/statbridge/pkg/export"
	"github.com/matzehuels/statbridge/pkg/table"
	"github.com/matzehuels/statbridge/pkg/transform"
)

func ExampleWriteCSV() {
	t := table.New("country", "year", "value")
	t.AppendValues(table.String("JP"), table.String("2020"), table.Number(100))
	t.AppendValues(table.String("JP"), table.String("2021"), table.Number(120.5))
	t.AppendValues(table.String("US"), table.String("2021"), table.Number(300))

	latest := transform.Apply(t, transform.Options{
		Filter: map[string]table.Value{"year": table.String("2021")},
		Sort:   []transform.SortKey{{Column: "value", Order: transform.Desc}},
	})
	if err := export.WriteCSV(latest, os.Stdout); err != nil {
		fmt.Println("Error:", err)
	}
	// Output:
	// country,year,value
	// US,2021,300
	// JP,2021,120.5
}
