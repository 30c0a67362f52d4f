package game

// Weights of the heuristic terms. They sum to one so the value stays in [-1, 1].
const (
	FirepowerWeight  = 0.35
	PushWeight       = 0.20
	DistanceWeight   = 0.20
	ProtectorWeight  = 0.15
	CongestionWeight = 0.10
)

// Evaluate scores a non-terminal board between -1 and 1, positive favouring Blue.
type Evaluate func(Board) float64

// HeuristicValue combines firepower, advancement, flag exposure, flag
// protection and flag congestion into a Blue-positive score in [-1, 1]. On a
// terminal board it returns the reward.
func HeuristicValue(b Board) float64 {
	if reward, ok := b.Reward(); ok {
		return reward
	}
	blueFlag, _ := b.FlagSquare(Blue)
	redFlag, _ := b.FlagSquare(Red)

	blueThreat, blueDist := b.nearestEnemy(blueFlag, Blue)
	redThreat, redDist := b.nearestEnemy(redFlag, Red)

	firepower := normalize(b.firepower(Blue), b.firepower(Red))
	push := b.advancement(Blue) - b.advancement(Red)
	distance := normalize(float64(blueDist), float64(redDist))
	protector := normalize(
		float64(b.protector(blueFlag, blueThreat, Blue)),
		float64(b.protector(redFlag, redThreat, Red)),
	)
	congestion := float64(b.congestion(blueFlag, Blue)-b.congestion(redFlag, Red)) / maxCongestion

	return FirepowerWeight*firepower +
		PushWeight*push +
		DistanceWeight*distance +
		ProtectorWeight*protector +
		CongestionWeight*congestion
}

// firepower sums the base ranks of p's pieces. The flag carries no weight.
func (b *Board) firepower(p Player) float64 {
	total := 0.0
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			r := b.Grid[row][col]
			if r.Owner() == p && r.Base() != Flag {
				total += float64(r.Base())
			}
		}
	}
	return total
}

// advancement is the mean fraction of the board p's pieces have crossed.
func (b *Board) advancement(p Player) float64 {
	total, n := 0.0, 0
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if b.Grid[row][col].Owner() != p {
				continue
			}
			progress := row
			if p == Red {
				progress = Rows - 1 - row
			}
			total += float64(progress) / (Rows - 1)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// nearestEnemy runs a breadth-first search from p's flag and returns the
// closest opposing piece and its distance. Every piece can take a flag, so
// every enemy counts as a threat. Without enemies the distance is maximal.
func (b *Board) nearestEnemy(from Square, p Player) (Square, int) {
	enemy := p.Opponent()
	var visited [Rows][Columns]bool
	visited[from.Row][from.Col] = true
	queue := []Square{from}
	dist := 0
	for len(queue) > 0 {
		var next []Square
		for _, s := range queue {
			if b.At(s).Owner() == enemy {
				return s, dist
			}
			for _, d := range directions {
				n := Square{s.Row + d.Row, s.Col + d.Col}
				if n.InBounds() && !visited[n.Row][n.Col] {
					visited[n.Row][n.Col] = true
					next = append(next, n)
				}
			}
		}
		queue = next
		dist++
	}
	return from, Rows + Columns
}

// protector is the strongest of p's pieces inside the rectangle spanned by
// the flag and its nearest threat.
func (b *Board) protector(flag, threat Square, p Player) Rank {
	top, bottom := min(flag.Row, threat.Row), max(flag.Row, threat.Row)
	left, right := min(flag.Col, threat.Col), max(flag.Col, threat.Col)
	best := Blank
	for row := top; row <= bottom; row++ {
		for col := left; col <= right; col++ {
			r := b.Grid[row][col]
			if r.Owner() == p && r.Base() != Flag && r.Base() > best {
				best = r.Base()
			}
		}
	}
	return best
}

const maxCongestion = 7

// congestion counts occupied squares around p's flag and around the square
// behind it.
func (b *Board) congestion(flag Square, p Player) int {
	behind := Square{flag.Row - forward(p), flag.Col}
	seen := map[Square]bool{flag: true}
	n := 0
	for _, center := range [2]Square{flag, behind} {
		if !center.InBounds() {
			continue
		}
		for _, d := range directions {
			s := Square{center.Row + d.Row, center.Col + d.Col}
			if !s.InBounds() || seen[s] {
				continue
			}
			seen[s] = true
			if b.At(s) != Blank {
				n++
			}
		}
	}
	return n
}

// normalize maps value relative to otherValue onto [-1, 1].
func normalize(value float64, otherValue float64) float64 {
	total := value + otherValue
	if total == 0 {
		return 0
	}
	return (value - otherValue) / total
}
