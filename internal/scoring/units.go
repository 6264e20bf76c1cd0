package scoring

import (
	"regexp"
	"strings"
)

// builtinUnits maps accepted spellings to a canonical symbol.
var builtinUnits = map[string]string{
	"m": "m", "metre": "m", "metres": "m", "meter": "m", "meters": "m",
	"cm": "cm", "centimetre": "cm", "centimetres": "cm", "centimeter": "cm", "centimeters": "cm",
	"mm": "mm", "millimetre": "mm", "millimetres": "mm", "millimeter": "mm", "millimeters": "mm",
	"km": "km", "kilometre": "km", "kilometres": "km", "kilometer": "km", "kilometers": "km",
	"s": "s", "sec": "s", "secs": "s", "second": "s", "seconds": "s",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg", "kilo": "kg", "kilos": "kg",
	"g": "g", "gram": "g", "grams": "g",
	"n": "N", "newton": "N", "newtons": "N",
	"j": "J", "joule": "J", "joules": "J",
	"w": "W", "watt": "W", "watts": "W",
	"°c": "°C", "degc": "°C", "celsius": "°C", "degreescelsius": "°C", "degreecelsius": "°C",
	"m/s": "m/s", "ms-1": "m/s", "ms^-1": "m/s", "mps": "m/s", "metrespersecond": "m/s", "meterspersecond": "m/s",
	"m/s^2": "m/s^2", "m/s2": "m/s^2", "ms-2": "m/s^2", "ms^-2": "m/s^2", "m/s²": "m/s^2",
	"%": "%", "percent": "%", "percentage": "%", "pc": "%",
	"ml": "ml", "millilitre": "ml", "millilitres": "ml", "milliliter": "ml", "milliliters": "ml",
	"l": "l", "litre": "l", "litres": "l", "liter": "l", "liters": "l",
	"hz": "Hz", "hertz": "Hz",
	"pa": "Pa", "pascal": "Pa", "pascals": "Pa",
	"v": "V", "volt": "V", "volts": "V",
	"a": "A", "amp": "A", "amps": "A", "ampere": "A", "amperes": "A",
	"ohm": "Ω", "ohms": "Ω", "ω": "Ω",
	"mol": "mol", "mole": "mol", "moles": "mol",
}

// canonicalUnitKey lowercases and strips spacing and dots so "m s-1" and "M/S." compare.
func canonicalUnitKey(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	u = strings.TrimSuffix(u, ".")
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '·' {
			return -1
		}
		return r
	}, u)
}

func (e *Engine) canonicalUnit(u string) string {
	key := canonicalUnitKey(u)
	if c, ok := e.cfg.UnitSynonyms[key]; ok {
		return c
	}
	if c, ok := builtinUnits[key]; ok {
		return canonicalUnitKey(c)
	}
	return key
}

func (e *Engine) unitsEqual(expected, got string) bool {
	if strings.TrimSpace(got) == "" {
		return false
	}
	return e.canonicalUnit(expected) == e.canonicalUnit(got)
}

var numberPrefix = regexp.MustCompile(`^\s*([-+]?(?:\d[\d,]*(?:\.\d+)?|\.\d+)(?:[eE][-+]?\d+)?)\s*(.*?)\s*$`)

// splitUnit separates a leading number from a trailing unit: "9.8 m/s^2" -> ("9.8", "m/s^2").
// Non-numeric text is returned unchanged with an empty unit.
func splitUnit(s string) (value, unit string) {
	m := numberPrefix.FindStringSubmatch(s)
	if m == nil {
		return strings.TrimSpace(s), ""
	}
	return m[1], m[2]
}
