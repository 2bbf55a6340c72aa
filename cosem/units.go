package cosem

// Unit enum per IEC 62056-62, annex B.
var units = [...]string{"unknown",
	// 1
	"a",
	"mo",
	"wk",
	"d",
	"h",
	"min.",
	"s",
	"°",
	"°C",
	// 10
	"currency",
	"m",
	"m/s",
	"m³",
	"m³",
	"m³/h",
	"m³/h",
	"m³/d",
	"m³/d",
	"l",
	// 20
	"kg",
	"N",
	"Nm",
	"Pa",
	"bar",
	"J",
	"J/h",
	"W",
	"VA",
	"var",
	// 30
	"Wh",
	"VAh",
	"varh",
	"A",
	"C",
	"V",
	"V/m",
	"F",
	"Ω",
	"Ωm²/m",
	// 40
	"Wb",
	"T",
	"A/m",
	"H",
	"Hz",
	"1/(Wh)",
	"1/(varh)",
	"1/(VAh)",
	"V²h",
	"A²h",
	// 50
	"kg/s",
	"S",
	"K",
	"1/(V²h)",
	"1/(A²h)",
	"1/m³",
	"%",
	"Ah",
	"unknown",
	"unknown",
	// 60
	"Wh/m³",
	"J/m³",
	"Mol %",
	"g/m³",
	"Pa s",
	"J/kg",
	"g/cm²",
	"atm",
	"unknown",
	"unknown",
	// 70
	"dBm",
	"dbµV",
	"dB"}

// UnitName maps the unit enum to its display string.
func UnitName(u uint8) string {
	if int(u) >= len(units) {
		return units[0]
	}
	return units[u]
}
