package morpho

// ElongationClass buckets the elongation ratio Re into the Schumm (1956)
// shape classes. The boundary values are the scientific contract of this
// index and must not drift.
type ElongationClass int

const (
	ClassVeryElongated     ElongationClass = iota // Re < 0.22
	ClassElongated                                // [0.22, 0.30)
	ClassSlightlyElongated                        // [0.30, 0.37)
	ClassIntermediate                             // [0.37, 0.45)
	ClassSlightlyWidened                          // [0.45, 0.60]
	ClassWidened                                  // (0.60, 0.80]
	ClassVeryWidened                              // (0.80, 1.20]
	ClassCircular                                 // Re > 1.20
)

// elongationClassLabels are the Spanish display names written to the
// CLASIF_ELON output attribute, matching the rest of the output schema.
var elongationClassLabels = [...]string{
	"Muy elongada",
	"Elongada",
	"Ligeramente elongada",
	"Ni elongada ni ensanchada",
	"Ligeramente ensanchada",
	"Ensanchada",
	"Muy ensanchada",
	"Redondeando el desague",
}

func (c ElongationClass) String() string {
	if c < ClassVeryElongated || c > ClassCircular {
		return "desconocida"
	}
	return elongationClassLabels[c]
}

// AllElongationClasses lists the classes from most elongated to most
// rounded. Histogram output and predominant-class tie-breaking follow this
// order.
func AllElongationClasses() []ElongationClass {
	return []ElongationClass{
		ClassVeryElongated,
		ClassElongated,
		ClassSlightlyElongated,
		ClassIntermediate,
		ClassSlightlyWidened,
		ClassWidened,
		ClassVeryWidened,
		ClassCircular,
	}
}

// ClassifyElongation maps an elongation ratio onto its shape class.
func ClassifyElongation(re float64) ElongationClass {
	switch {
	case re < 0.22:
		return ClassVeryElongated
	case re < 0.30:
		return ClassElongated
	case re < 0.37:
		return ClassSlightlyElongated
	case re < 0.45:
		return ClassIntermediate
	case re <= 0.60:
		return ClassSlightlyWidened
	case re <= 0.80:
		return ClassWidened
	case re <= 1.20:
		return ClassVeryWidened
	default:
		return ClassCircular
	}
}
