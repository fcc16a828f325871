package geom

import "sort"

// ConvexHull returns the convex hull of the vertices of pp as a CCW
// polygon, using Andrew's monotone chain.
func ConvexHull(pp Polygons) Polygon {
	var pts Points
	for _, p := range pp {
		pts = append(pts, p.Points...)
	}
	return convexHullPoints(pts)
}

func convexHullPoints(pts Points) Polygon {
	if len(pts) < 3 {
		return Polygon{Points: pts}
	}
	sorted := make(Points, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})
	// Deduplicate.
	uniq := sorted[:1]
	for _, p := range sorted[1:] {
		if p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return Polygon{Points: uniq}
	}

	cross := func(o, a, b Point) float64 { return a.Sub(o).Cross(b.Sub(o)) }

	hull := make(Points, 0, 2*len(uniq))
	for _, p := range uniq { // lower hull
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(uniq) - 2; i >= 0; i-- { // upper hull
		p := uniq[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return Polygon{Points: hull[:len(hull)-1]}
}
