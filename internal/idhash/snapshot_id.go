package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mr-tron/base58"

	"power-market-lab/internal/domain"
)

// ComputeSnapshotID computes a deterministic identifier for a day's record set.
// Formula: SHA256(date|record_1|...|record_n), records in the given order.
// Returns base58-encoded hash.
func ComputeSnapshotID(date time.Time, records []domain.HourlyRecord) string {
	var b strings.Builder
	b.WriteString(date.Format(domain.DateLayout))
	for _, r := range records {
		b.WriteByte('|')
		b.WriteString(canonicalRecord(r))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return base58.Encode(hash[:])
}

// ComputeSourceDigest computes a deterministic digest of one raw report text.
// Formula: SHA256(report|text)
// Returns hex-encoded hash (64 characters).
func ComputeSourceDigest(report, text string) string {
	data := fmt.Sprintf("%s|%s", report, text)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// canonicalRecord serializes the value-bearing fields of a record.
// Absent values serialize as an empty token so nil and zero differ.
func canonicalRecord(r domain.HourlyRecord) string {
	parts := []string{
		strconv.Itoa(r.HE),
		num(r.ForecastPrice),
		num(r.ActualPrice),
		num(r.SystemMarginalPrice),
		num(r.ForecastLoad),
		num(r.ActualLoad),
		num(r.ReferencePrice),
		num(r.ReferenceLoad),
		num(r.CushionMw),
		num(r.CushionPercent),
		string(r.CushionFlag),
		num(r.WindForecast),
		num(r.WindActual),
		num(r.SolarForecast),
		num(r.SolarActual),
		string(r.Provenance),
	}
	for _, it := range r.Interties {
		parts = append(parts, fmt.Sprintf("%s:%s:%s",
			it.Path,
			strconv.FormatFloat(it.ScheduledMw, 'g', -1, 64),
			strconv.FormatFloat(it.ActualMw, 'g', -1, 64),
		))
	}
	for _, fc := range r.CapabilityByFuel {
		parts = append(parts, fmt.Sprintf("%s:%d:%d", fc.Fuel, fc.AvailableMw, fc.OutageMw))
	}
	return strings.Join(parts, ",")
}

func num(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
