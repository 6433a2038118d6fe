package mensa

import (
	"mensa-scraper/lib/restyutil"
	"mensa-scraper/lib/telemetry"
)

var tracer = telemetry.Tracer("mensa.lib.scrapers.mensa")
var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput sets where fetchers created afterwards dump
// their http messages while debug logging is enabled.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
