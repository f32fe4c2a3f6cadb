package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/finance-schedule/pkg/datetime"
	"github.com/iwvelando/finance-schedule/pkg/loans"
)

// keyVersion changes whenever the cached payload or the engine's output
// changes shape.
const keyVersion = "v1"

// Key fingerprints every field of terms that affects the schedule, day-count
// basis included.
func Key(terms loans.FinancingTerms) string {
	var b strings.Builder
	fields := []string{
		keyVersion,
		terms.Principal.StringFixed(2),
		strconv.FormatFloat(terms.MonthlyRatePercent, 'g', -1, 64),
		datetime.FormatDate(terms.Anchor),
		terms.DayCount.String(),
		terms.Modality.String(),
		terms.BalloonCadence.String(),
		strconv.Itoa(terms.Installments),
		strconv.Itoa(terms.Balloons),
		terms.FixedInstallment.StringFixed(2),
		terms.FixedBalloon.StringFixed(2),
		terms.BalloonPolicy.String(),
		strconv.Itoa(terms.FirstBalloonMonth),
	}
	for _, f := range fields {
		b.WriteString(f)
		b.WriteByte('|')
	}
	for _, m := range terms.BalloonMonths {
		b.WriteString(strconv.Itoa(m))
		b.WriteByte(',')
	}
	return fmt.Sprintf("schedule:%016x", xxhash.Sum64String(b.String()))
}
