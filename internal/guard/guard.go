// Package guard screens public form submissions before they reach the
// rate limiter and mail dispatch. The checks are heuristic noise
// reduction, not airtight bot defense; false positives and negatives
// are acceptable.
package guard

import (
	"regexp"
	"strings"
	"time"
)

// Block reasons surfaced in Decision.Reason.
const (
	ReasonHoneypot    = "honeypot"
	ReasonTooFast     = "too_fast"
	ReasonSpamKeyword = "spam_keywords"
	ReasonLinkDensity = "link_density"
)

// MinFillTime is the shortest believable human form-fill duration.
const MinFillTime = 3 * time.Second

// maxLinks is the number of URL-like tokens tolerated in the free-text
// message before the submission is treated as link spam.
const maxLinks = 3

var spamKeywords = []string{
	"viagra", "cialis", "casino", "poker", "lottery", "winner", "prize",
	"free money", "make money fast", "work from home", "get rich",
	"click here", "buy now", "limited time", "act now", "urgent",
	"guaranteed", "no risk", "100% free", "no credit check",
	"debt consolidation", "refinance", "lower interest",
	"weight loss", "lose weight fast", "diet pills",
	"rolex", "replica", "cheap watches", "luxury watches",
}

var urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)

// Submission carries the parts of a form relevant to screening.
type Submission struct {
	// Fields are all free-text values joined for keyword matching.
	Fields []string
	// Message is the free-text body the link-density check applies to.
	Message string
	// Honeypot is the value of a field invisible to real users; any
	// content means a bot filled the form.
	Honeypot string
	// LoadedAt is the client-reported form render time in Unix
	// milliseconds, zero when the client did not report one.
	LoadedAt int64
}

// Decision is the screening outcome.
type Decision struct {
	Blocked bool
	Reason  string
}

// Screen runs the checks in order and short-circuits on the first
// failure: honeypot, minimum fill time, spam keywords, link density.
func Screen(sub Submission, now time.Time) Decision {
	if strings.TrimSpace(sub.Honeypot) != "" {
		return Decision{Blocked: true, Reason: ReasonHoneypot}
	}
	if sub.LoadedAt > 0 {
		elapsed := now.Sub(time.UnixMilli(sub.LoadedAt))
		if elapsed < MinFillTime {
			return Decision{Blocked: true, Reason: ReasonTooFast}
		}
	}
	joined := strings.ToLower(strings.Join(sub.Fields, " "))
	for _, kw := range spamKeywords {
		if strings.Contains(joined, kw) {
			return Decision{Blocked: true, Reason: ReasonSpamKeyword}
		}
	}
	if len(urlPattern.FindAllString(sub.Message, -1)) > maxLinks {
		return Decision{Blocked: true, Reason: ReasonLinkDensity}
	}
	return Decision{}
}
