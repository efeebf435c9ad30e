package importer

import (
	"strings"

	"github.com/mkarlsen/tradescribe/internal/models"
)

type leg struct {
	short  bool
	put    bool
	call   bool
	expiry string
	strike string
}

// ClassifyStrategy infers an options strategy from a broker leg description.
// Legs are separated by ";" or "|"; each leg carries an action (STO/BTO/
// STC/BTC), an expiry, a strike and a P/C marker, e.g.
// "STO -1 AAPL 03/20/2026 180 P". Unrecognized shapes classify as UNKNOWN;
// an empty leg string is a plain share position.
func ClassifyStrategy(legsRaw string) (models.StrategyType, string) {
	legsRaw = strings.TrimSpace(legsRaw)
	if legsRaw == "" {
		return models.StrategyShares, "Shares"
	}

	legs := parseLegs(legsRaw)
	if len(legs) == 0 {
		return models.StrategyUnknown, "Unknown"
	}

	puts, calls, shorts := 0, 0, 0
	expiries := make(map[string]bool)
	strikes := make(map[string]bool)
	for _, l := range legs {
		if l.put {
			puts++
		}
		if l.call {
			calls++
		}
		if l.short {
			shorts++
		}
		if l.expiry != "" {
			expiries[l.expiry] = true
		}
		if l.strike != "" {
			strikes[l.strike] = true
		}
	}

	switch len(legs) {
	case 1:
		l := legs[0]
		switch {
		case l.put && l.short:
			return models.StrategyCashSecuredPut, "Cash-Secured Put"
		case l.call && l.short:
			return models.StrategyCoveredCall, "Covered Call"
		case l.call:
			return models.StrategyLongCall, "Long Call"
		case l.put:
			return models.StrategyLongPut, "Long Put"
		}
	case 2:
		sameExpiry := len(expiries) <= 1
		switch {
		case puts == 2 || calls == 2:
			if sameExpiry {
				return models.StrategyVertical, "Vertical Spread"
			}
			return models.StrategyCalendar, "Calendar Spread"
		case puts == 1 && calls == 1 && sameExpiry:
			if len(strikes) == 1 {
				return models.StrategyStraddle, "Straddle"
			}
			return models.StrategyStrangle, "Strangle"
		case puts == 1 && calls == 1:
			return models.StrategyCalendar, "Calendar Spread"
		}
	case 4:
		if puts == 2 && calls == 2 && len(expiries) <= 1 {
			return models.StrategyIronCondor, "Iron Condor"
		}
	}
	return models.StrategyUnknown, "Unknown"
}

func parseLegs(raw string) []leg {
	raw = strings.ReplaceAll(raw, "|", ";")
	parts := strings.Split(raw, ";")

	legs := make([]leg, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(strings.ToUpper(part))
		if len(fields) == 0 {
			continue
		}
		var l leg
		matched := false
		for i, f := range fields {
			switch f {
			case "STO", "STC":
				l.short = true
			case "P", "PUT":
				l.put = true
				matched = true
				if i > 0 {
					l.strike = fields[i-1]
				}
			case "C", "CALL":
				l.call = true
				matched = true
				if i > 0 {
					l.strike = fields[i-1]
				}
			}
			if strings.Count(f, "/") == 2 || (strings.Count(f, "-") == 2 && len(f) == 10) {
				l.expiry = f
			}
		}
		if matched {
			legs = append(legs, l)
		}
	}
	return legs
}
