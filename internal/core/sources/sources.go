// Package sources registers the county and state data files with the core
// catalog. Import it for side effects before resolving sources.
package sources

import "github.com/JonMunkholm/dataengine/internal/core"

// Canonical dataset names.
const (
	CountyPopulationTax   = "CountyPopulationTax"
	CountyList            = "CountyList"
	CountyUnemployment    = "CountyUnemployment"
	StateExports          = "StateExports"
	StateTaxRates         = "StateTaxRates"
	CountyMedianIncome    = "CountyMedianIncome"
	CountyEmploymentWages = "CountyEmploymentWages"
)

func init() {
	registerCountySources()
	registerStateSources()
}

func registerCountySources() {
	core.Register(core.SourceDefinition{
		Name:  CountyPopulationTax,
		File:  "Population_By_County_State_County_Tax.csv",
		Order: 1,
		Group: "County",
		Label: "Population and Tax by County",
	})
	core.Register(core.SourceDefinition{
		Name:  CountyList,
		File:  "usa_county_list.csv",
		Order: 2,
		Group: "County",
		Label: "County List",
	})
	core.Register(core.SourceDefinition{
		Name:  CountyUnemployment,
		File:  "Unemployment_By_County.xlsx",
		Order: 3,
		Group: "County",
		Label: "Unemployment by County",
	})
	core.Register(core.SourceDefinition{
		Name:  CountyMedianIncome,
		File:  "Median_Income_County.json",
		Order: 6,
		Group: "County",
		Label: "Median Income by County",
	})
	core.Register(core.SourceDefinition{
		Name:  CountyEmploymentWages,
		File:  "US_St_Cn_Table_Workforce_Wages.xml",
		Order: 7,
		Group: "County",
		Label: "Workforce Wages by County",
	})
}

func registerStateSources() {
	core.Register(core.SourceDefinition{
		Name:  StateExports,
		File:  "Exports By State 2012.xlsx",
		Order: 4,
		Group: "State",
		Label: "Exports by State (2012)",
	})
	core.Register(core.SourceDefinition{
		Name:  StateTaxRates,
		File:  "StateTaxRates.xlsx",
		Order: 5,
		Group: "State",
		Label: "State Tax Rates",
	})
}
