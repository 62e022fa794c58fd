// Package drift compares the lab's group variables against a saved baseline.
package drift

import (
	"sort"
	"strings"
	"time"

	"labcheck/internal/artifact"
	"labcheck/internal/baseline"
)

// DriftType is the kind of change to one variable.
type DriftType string

const (
	DriftAdded   DriftType = "added"
	DriftRemoved DriftType = "removed"
	DriftChanged DriftType = "changed"
)

// KeyDrift is the change of one group variable. Values are the canonical
// JSON of the artifact; Secret changes carry digests only.
type KeyDrift struct {
	Key           string    `json:"key"` // group.variable
	Type          DriftType `json:"type"`
	BaselineValue string    `json:"baselineValue,omitempty"`
	CurrentValue  string    `json:"currentValue,omitempty"`
	Secret        bool      `json:"secret,omitempty"`
}

// Group is the inventory group of the variable.
func (k KeyDrift) Group() string {
	group, _, _ := strings.Cut(k.Key, ".")
	return group
}

// Variable is the key without its group.
func (k KeyDrift) Variable() string {
	if _, v, ok := strings.Cut(k.Key, "."); ok {
		return v
	}
	return k.Key
}

// GroupDrift collects the changes of one group.
type GroupDrift struct {
	Group   string
	Changes []KeyDrift
}

// DriftReport is the result of comparing an artifact with a baseline.
type DriftReport struct {
	HasDrift     bool       `json:"hasDrift"`
	BaselineName string     `json:"baselineName"`
	BaselineHash string     `json:"baselineHash"`
	CurrentHash  string     `json:"currentHash"`
	BaselineTime time.Time  `json:"baselineTime"`
	Changes      []KeyDrift `json:"changes"`
}

// Detect lists every variable that was added, removed or changed since b
// was saved, sorted by key. Equal config versions short-circuit.
func Detect(b baseline.Baseline, current artifact.ConfigArtifact) DriftReport {
	report := DriftReport{
		BaselineName: b.Name,
		BaselineHash: b.ConfigHash,
		CurrentHash:  current.ConfigVersion,
		BaselineTime: b.Timestamp,
		Changes:      []KeyDrift{},
	}
	if b.ConfigHash == current.ConfigVersion {
		return report
	}

	for key, was := range b.ConfigValues {
		now, ok := current.Values[key]
		switch {
		case !ok:
			report.Changes = append(report.Changes, newKeyDrift(key, DriftRemoved, was, ""))
		case now != was:
			report.Changes = append(report.Changes, newKeyDrift(key, DriftChanged, was, now))
		}
	}
	for key, now := range current.Values {
		if _, ok := b.ConfigValues[key]; !ok {
			report.Changes = append(report.Changes, newKeyDrift(key, DriftAdded, "", now))
		}
	}
	sort.Slice(report.Changes, func(i, j int) bool {
		return report.Changes[i].Key < report.Changes[j].Key
	})

	report.HasDrift = len(report.Changes) > 0
	return report
}

func newKeyDrift(key string, t DriftType, was, now string) KeyDrift {
	return KeyDrift{
		Key:           key,
		Type:          t,
		BaselineValue: was,
		CurrentValue:  now,
		Secret:        artifact.IsSecretDigest(was) || artifact.IsSecretDigest(now),
	}
}

// ByGroup splits the changes by inventory group, in key order.
func (r DriftReport) ByGroup() []GroupDrift {
	var groups []GroupDrift
	for _, c := range r.Changes {
		if n := len(groups); n > 0 && groups[n-1].Group == c.Group() {
			groups[n-1].Changes = append(groups[n-1].Changes, c)
			continue
		}
		groups = append(groups, GroupDrift{Group: c.Group(), Changes: []KeyDrift{c}})
	}
	return groups
}

// Counts returns the number of added, removed and changed variables.
func (r DriftReport) Counts() (added, removed, changed int) {
	for _, c := range r.Changes {
		switch c.Type {
		case DriftAdded:
			added++
		case DriftRemoved:
			removed++
		case DriftChanged:
			changed++
		}
	}
	return added, removed, changed
}
