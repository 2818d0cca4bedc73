package versions

import (
	"fmt"
	"time"

	"github.com/openlawlibrary/stelae-sub000/stelae/go/history"
)

// computeMessages builds the publication/version/comparison staleness
// messages (spec §4.8 "Messages"). versions and activePublicationName
// are the pre-synthetic-insertion values: the caller runs this before
// replacing activePublicationName with CurrentPublicationName and before
// inserting the "current"/query-date marker rows.
func computeMessages(versions []Version, currentPublication history.Publication, activePublicationName, dateParam string, activeCompareTo *string) Messages {
	currentVersionDate := ""
	if len(versions) > 0 {
		currentVersionDate = versions[0].Date
	}

	msgs := Messages{
		Publication: publicationMessage(activePublicationName, currentPublication.Name, currentVersionDate),
	}
	if dateParam != "" {
		msgs.Version = versionMessage(currentVersionDate, dateParam, versions, activeCompareTo)
	}
	if activeCompareTo != nil && dateParam != "" {
		msg := comparisonMessage(*activeCompareTo, dateParam, currentVersionDate, versions)
		msgs.Comparison = &msg
	}
	return msgs
}

// publicationMessage warns that a non-current publication is frozen.
func publicationMessage(activePublicationName, currentPublicationName, currentVersionDate string) *string {
	if activePublicationName == currentPublicationName {
		return nil
	}
	msg := fmt.Sprintf(
		"You are viewing a historical publication that was last updated on %s and is no longer being updated.",
		formatDate(currentVersionDate))
	return &msg
}

// versionMessage warns that the active version is not the newest one,
// reporting the date range it was valid for. Returns nil when comparing
// (the comparison message takes over), when versionDateRaw doesn't parse,
// or when it names the current version or something newer.
func versionMessage(currentVersionDate, versionDateRaw string, versions []Version, compareTo *string) *string {
	if compareTo != nil {
		return nil
	}
	versionDate, ok := parseDate(versionDateRaw)
	if !ok {
		return nil
	}
	if isCurrentOrNewer(currentVersionDate, versionDate) {
		return nil
	}

	start, end := versionInterval(versions, versionDate)
	msg := fmt.Sprintf(
		"You are viewing this document as it appeared on %s. This version was valid between %s and %s.",
		formatDate(versionDate), formatDate(start), formatDate(end))
	return &msg
}

func isCurrentOrNewer(currentVersionDate, versionDate string) bool {
	current, err1 := time.Parse(dateLayout, currentVersionDate)
	version, err2 := time.Parse(dateLayout, versionDate)
	if err1 != nil || err2 != nil {
		return false
	}
	return !current.After(version)
}

// versionInterval finds the [start, end] versions bracketing target
// within versions (sorted descending). An exact match anchors start at
// target and end at the next-newer version; otherwise start is the
// nearest earlier version and end the nearest later one. When target
// predates every known version, start and end both fall back to the
// earliest one (spec §4.8 version message, "before earliest" case).
func versionInterval(versions []Version, target string) (start, end string) {
	for i, v := range versions {
		if v.Date == target {
			start = target
			if i > 0 {
				end = versions[i-1].Date
			} else {
				end = target
			}
			return start, end
		}
	}

	earlierIdx := -1
	for i, v := range versions {
		if v.Date < target {
			earlierIdx = i
			break
		}
	}
	if earlierIdx == -1 {
		if len(versions) > 0 {
			start = versions[len(versions)-1].Date
			end = start
		} else {
			start, end = target, target
		}
		return start, end
	}

	start = versions[earlierIdx].Date
	if earlierIdx > 0 {
		end = versions[earlierIdx-1].Date
	} else {
		end = target
	}
	return start, end
}

// comparisonMessage reports how many updates fall between two dates,
// omitting the end date from the text when it's the current version
// (spec §4.8 "comparison").
func comparisonMessage(compareToDate, versionDate, currentDate string, versions []Version) string {
	start, end := versionDate, compareToDate
	if versionDate > compareToDate {
		start, end = compareToDate, versionDate
	}

	startIdx := findIndexOrClosest(versions, start)
	endIdx := findIndexOrClosest(versions, end)
	numChanges := startIdx - endIdx

	startDisplay := formatDate(start)
	var endDisplay *string
	if end != currentDate {
		d := formatDate(end)
		endDisplay = &d
	}
	return messagesBetween(numChanges, startDisplay, endDisplay)
}

func messagesBetween(numChanges int, startDate string, endDate *string) string {
	var changes string
	switch numChanges {
	case 0:
		changes = "no updates"
	case 1:
		changes = "1 update"
	default:
		changes = fmt.Sprintf("%d updates", numChanges)
	}

	if endDate == nil {
		return fmt.Sprintf("There have been <strong>%s</strong> since %s.", changes, startDate)
	}
	return fmt.Sprintf("There have been <strong>%s</strong> between %s and %s.", changes, startDate, *endDate)
}

// findIndexOrClosest returns target's rank within versions (sorted
// descending): its exact index, or, failing that, the index of the
// nearest strictly-earlier version, or len(versions) if none is earlier.
func findIndexOrClosest(versions []Version, target string) int {
	for i, v := range versions {
		if v.Date == target {
			return i
		}
	}
	bestIdx := -1
	var bestDate string
	for i, v := range versions {
		if v.Date < target && (bestIdx == -1 || v.Date > bestDate) {
			bestDate = v.Date
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return len(versions)
	}
	return bestIdx
}
