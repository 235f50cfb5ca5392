package models

import "strings"

type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var SupportedCountries = []Country{
	{Code: "FRA", Name: "France"},
	{Code: "DEU", Name: "Germany"},
	{Code: "GBR", Name: "United Kingdom"},
	{Code: "USA", Name: "United States"},
	{Code: "JPN", Name: "Japan"},
	{Code: "ITA", Name: "Italy"},
	{Code: "ESP", Name: "Spain"},
	{Code: "CAN", Name: "Canada"},
}

// LookupCountry accepts any letter case.
func LookupCountry(code string) (Country, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range SupportedCountries {
		if c.Code == code {
			return c, true
		}
	}
	return Country{}, false
}
