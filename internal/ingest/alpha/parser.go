package alpha

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Line shapes of an export, in the order sessionReader tries them.
var (
	// "Legs · Day 2";"2026-02-19 4:54 h";"1:02 hr"
	sessionLine = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)
	// "1. Hack Squats · Machine · 8 reps · 2 dropsets";"WU1 · 37,5 kg · 9 reps"
	exerciseLine = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)
	// 1;115;8;1
	setLine = regexp.MustCompile(`^(\d+);([^;]+);(\d+);([^;]+)$`)

	warmupEntry = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)
	durationRe  = regexp.MustCompile(`^(\d+):(\d{2})\s*hr?$`)
)

const columnHeader = "#;KG;REPS;RIR"

// sessionReader accumulates sessions line by line. A blank line or a new
// session header closes the open session.
type sessionReader struct {
	sessions []Session
	session  *Session
	exercise *Exercise
}

// Parse reads an Alpha Progression CSV export. Lines that match no known
// shape are ignored.
func Parse(r io.Reader) ([]Session, error) {
	var sr sessionReader
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		if err := sr.line(strings.TrimSpace(sc.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sr.closeSession()
	return sr.sessions, nil
}

func (sr *sessionReader) line(l string) error {
	switch {
	case l == "":
		sr.closeSession()
	case l == columnHeader:
	case sessionLine.MatchString(l):
		return sr.startSession(sessionLine.FindStringSubmatch(l))
	case exerciseLine.MatchString(l):
		if sr.session == nil {
			return fmt.Errorf("exercise without session: %q", l)
		}
		sr.startExercise(exerciseLine.FindStringSubmatch(l))
	case setLine.MatchString(l):
		if sr.exercise == nil {
			return fmt.Errorf("set data without exercise: %q", l)
		}
		m := setLine.FindStringSubmatch(l)
		weight, bw := parseWeight(m[2])
		sr.exercise.Sets = append(sr.exercise.Sets, Set{
			Number:           atoi(m[1]),
			WeightKg:         weight,
			IsBodyweightPlus: bw,
			Reps:             atoi(m[3]),
			RIR:              parseDecimal(m[4]),
		})
	}
	return nil
}

func (sr *sessionReader) startSession(m []string) error {
	sr.closeSession()
	date, err := parseSessionDate(m[2])
	if err != nil {
		return err
	}
	sr.session = &Session{Name: m[1], Date: date, Duration: parseDuration(m[3])}
	return nil
}

func (sr *sessionReader) startExercise(m []string) {
	sr.closeExercise()
	sr.exercise = &Exercise{
		Number:     atoi(m[1]),
		Name:       strings.TrimSpace(m[2]),
		Equipment:  strings.TrimSpace(m[3]),
		TargetReps: atoi(m[4]),
		Modifiers:  strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m[5]), "·")),
		Sets:       parseWarmups(m[6]),
	}
}

func (sr *sessionReader) closeExercise() {
	if sr.exercise != nil && sr.session != nil {
		sr.session.Exercises = append(sr.session.Exercises, *sr.exercise)
	}
	sr.exercise = nil
}

func (sr *sessionReader) closeSession() {
	sr.closeExercise()
	if sr.session != nil {
		sr.sessions = append(sr.sessions, *sr.session)
	}
	sr.session = nil
}

// parseSessionDate accepts both "2026-02-19 4:54" and "2026-02-19 16:54".
func parseSessionDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("session date %q: unrecognized format", s)
}

// parseDuration reads "1:02 hr" as hours and minutes.
func parseDuration(s string) time.Duration {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	return time.Duration(atoi(m[1]))*time.Hour + time.Duration(atoi(m[2]))*time.Minute
}

// parseWarmups reads the "<br>"-separated warmup list of an exercise header.
func parseWarmups(s string) []Set {
	if s == "" {
		return nil
	}
	var sets []Set
	for _, entry := range strings.Split(s, "<br>") {
		m := warmupEntry.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		weight, bw := parseWeight(m[2])
		sets = append(sets, Set{
			Number:           atoi(m[1]),
			WeightKg:         weight,
			IsBodyweightPlus: bw,
			Reps:             atoi(m[3]),
			IsWarmup:         true,
		})
	}
	return sets
}

// parseWeight reads a KG cell. A leading "+" marks load added to bodyweight.
func parseWeight(s string) (kg float64, bodyweightPlus bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return parseDecimal(rest), true
	}
	return parseDecimal(s), false
}

// parseDecimal reads numbers written with a decimal comma. Unreadable
// cells become 0.
func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
