// Package session models trading-session calendars. A Calendar decides
// whether a given instant falls inside trading hours, so the engine can
// ignore candles produced outside the session (late flushes, replays of
// off-hours data). The Always calendar never closes, for markets that
// trade around the clock.
package session

import (
	"fmt"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST = time.FixedZone("IST", 5*3600+30*60)

// NSE trading hours in IST.
const (
	nseOpenHour    = 9
	nseOpenMinute  = 15
	nseCloseHour   = 15
	nseCloseMinute = 30
)

// Calendar describes one trading session: open and close as minutes of the
// day in a location, whether weekends are closed, and a closed-date set.
// A zero openMin with closeMin of 1440 and no weekend rule means 24x7.
type Calendar struct {
	loc      *time.Location
	openMin  int
	closeMin int
	weekends bool // true = closed Saturday and Sunday
	holidays map[string]bool
}

// New builds a calendar with the given hours. Holidays are matched by
// calendar date in loc.
func New(loc *time.Location, openHour, openMinute, closeHour, closeMinute int, weekendsClosed bool, holidays []time.Time) *Calendar {
	hs := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		hs[h.In(loc).Format("2006-01-02")] = true
	}
	return &Calendar{
		loc:      loc,
		openMin:  openHour*60 + openMinute,
		closeMin: closeHour*60 + closeMinute,
		weekends: weekendsClosed,
		holidays: hs,
	}
}

// Always returns a calendar that is open at every instant.
func Always() *Calendar {
	return &Calendar{loc: time.UTC, openMin: 0, closeMin: 24 * 60, weekends: false, holidays: map[string]bool{}}
}

// NSE returns the National Stock Exchange calendar: 9:15-15:30 IST,
// Mon-Fri, excluding the exchange holiday list.
func NSE() *Calendar {
	return New(IST, nseOpenHour, nseOpenMinute, nseCloseHour, nseCloseMinute, true, nseHolidays())
}

// IsOpen reports whether t falls inside trading hours.
func (c *Calendar) IsOpen(t time.Time) bool {
	lt := t.In(c.loc)
	if !c.IsTradingDay(lt) {
		return false
	}
	hm := lt.Hour()*60 + lt.Minute()
	return hm >= c.openMin && hm < c.closeMin
}

// IsTradingDay reports whether t's date has a session at all.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	lt := t.In(c.loc)
	if c.weekends {
		wd := lt.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			return false
		}
	}
	return !c.holidays[lt.Format("2006-01-02")]
}

// NextOpen returns the next session open at or after t. If t is before
// today's open on a trading day, today's open is returned.
func (c *Calendar) NextOpen(t time.Time) time.Time {
	lt := t.In(c.loc)
	todayOpen := time.Date(lt.Year(), lt.Month(), lt.Day(), c.openMin/60, c.openMin%60, 0, 0, c.loc)
	if lt.Before(todayOpen) && c.IsTradingDay(lt) {
		return todayOpen
	}
	d := lt.AddDate(0, 0, 1)
	for i := 0; i < 14; i++ { // bounded scan past weekends and holidays
		if c.IsTradingDay(d) {
			return time.Date(d.Year(), d.Month(), d.Day(), c.openMin/60, c.openMin%60, 0, 0, c.loc)
		}
		d = d.AddDate(0, 0, 1)
	}
	return todayOpen.AddDate(0, 0, 1)
}

// TimeUntilClose returns the duration until today's close, 0 if already
// closed.
func (c *Calendar) TimeUntilClose(t time.Time) time.Duration {
	lt := t.In(c.loc)
	closeAt := time.Date(lt.Year(), lt.Month(), lt.Day(), c.closeMin/60, c.closeMin%60, 0, 0, c.loc)
	d := closeAt.Sub(lt)
	if d < 0 {
		return 0
	}
	return d
}

// Status returns a human-readable session status for startup banners.
func (c *Calendar) Status(t time.Time) string {
	if c.openMin == 0 && c.closeMin == 24*60 && !c.weekends {
		return "Session Open (24x7)"
	}
	if c.IsOpen(t) {
		return fmt.Sprintf("Session Open, closes in %s", fmtDur(c.TimeUntilClose(t)))
	}
	next := c.NextOpen(t).In(c.loc)
	return fmt.Sprintf("Session Closed, opens %s %s",
		next.Weekday().String()[:3], next.Format("15:04"))
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
