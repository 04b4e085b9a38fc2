package modem

// EyeDiagram slices the in-phase rail of bb into overlapping traces of span
// symbol periods, one starting at each symbol instant. Traces that would run
// past the end of the signal are omitted.
func EyeDiagram(bb *Baseband, span int) [][]float64 {
	sps := bb.SamplesPerSymbol
	if sps < 1 || span < 1 {
		return nil
	}
	width := span * sps

	var traces [][]float64
	for start := bb.Delay; start+width <= len(bb.Samples); start += sps {
		trace := make([]float64, width)
		for i := range trace {
			trace[i] = real(bb.Samples[start+i])
		}
		traces = append(traces, trace)
	}
	return traces
}

// ConstellationPoints returns the received symbol-instant samples as
// (I, Q) pairs for scatter plotting.
func ConstellationPoints(bb *Baseband) [][2]float64 {
	symbols := bb.SymbolSamples()
	points := make([][2]float64, len(symbols))
	for i, s := range symbols {
		points[i] = [2]float64{real(s), imag(s)}
	}
	return points
}
