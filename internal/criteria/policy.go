package criteria

// Policy carries the import defaults explicitly instead of package globals.
type Policy struct {
	DefaultTAVisible   bool
	DefaultPeerVisible bool
	MarkPrecision      int32 // decimal places kept on max marks
	MinRubricLevels    int   // rubric entries with fewer levels are rejected
}

func DefaultPolicy() Policy {
	return Policy{
		DefaultTAVisible:   true,
		DefaultPeerVisible: false,
		MarkPrecision:      1,
		MinRubricLevels:    1,
	}
}

func (p Policy) normalized() Policy {
	if p.MarkPrecision < 0 {
		p.MarkPrecision = 0
	}
	if p.MinRubricLevels < 1 {
		p.MinRubricLevels = 1
	}
	return p
}
