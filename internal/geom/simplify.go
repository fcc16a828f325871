package geom

// SimplifyOpen reduces an open point sequence with the Douglas-Peucker
// algorithm. Points further than tolerance (scaled units) from the chord of
// their run are kept.
func SimplifyOpen(pts Points, tolerance float64) Points {
	if len(pts) <= 2 {
		return pts
	}
	keep := make([]bool, len(pts))
	keep[0], keep[len(pts)-1] = true, true
	simplifyRange(pts, 0, len(pts)-1, tolerance, keep)
	out := make(Points, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// SimplifyClosed reduces a closed contour. The contour is treated as two
// open halves anchored at the two most distant vertices so that the result
// remains a valid ring.
func SimplifyClosed(pts Points, tolerance float64) Points {
	if len(pts) <= 4 {
		return pts
	}
	// Anchor at vertex 0 and the vertex farthest from it.
	far, farDist := 0, -1.0
	for i, p := range pts {
		if d := pts[0].DistanceSqTo(p); d > farDist {
			far, farDist = i, d
		}
	}
	if far == 0 {
		return pts
	}
	keep := make([]bool, len(pts))
	keep[0], keep[far] = true, true
	simplifyRange(pts, 0, far, tolerance, keep)
	simplifyClosedTail(pts, far, tolerance, keep)
	out := make(Points, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	if len(out) < 3 {
		return pts
	}
	return out
}

func simplifyRange(pts Points, lo, hi int, tolerance float64, keep []bool) {
	if hi-lo < 2 {
		return
	}
	worst, worstDist := -1, tolerance
	for i := lo + 1; i < hi; i++ {
		if d := pts[i].DistanceToSegment(pts[lo], pts[hi]); d > worstDist {
			worst, worstDist = i, d
		}
	}
	if worst < 0 {
		return
	}
	keep[worst] = true
	simplifyRange(pts, lo, worst, tolerance, keep)
	simplifyRange(pts, worst, hi, tolerance, keep)
}

// simplifyClosedTail handles the wrap-around run far..n-1..0.
func simplifyClosedTail(pts Points, far int, tolerance float64, keep []bool) {
	n := len(pts)
	run := make(Points, 0, n-far+1)
	run = append(run, pts[far:]...)
	run = append(run, pts[0])
	sub := make([]bool, len(run))
	sub[0], sub[len(sub)-1] = true, true
	simplifyRange(run, 0, len(run)-1, tolerance, sub)
	for i := 1; i < len(run)-1; i++ {
		if sub[i] {
			keep[far+i] = true
		}
	}
}
