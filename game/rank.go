package game

import (
	"fmt"
	"strings"
)

// Rank is the strength of a piece. Blue pieces use 1 (Flag) to 15 (Spy),
// red pieces the same scale shifted by RedOffset. 0 marks an empty square.
type Rank int8

const (
	Blank Rank = iota
	Flag
	Private
	Sergeant
	SecondLieutenant
	FirstLieutenant
	Captain
	Major
	LieutenantColonel
	Colonel
	BrigadierGeneral
	MajorGeneral
	LieutenantGeneral
	General
	GeneralOfTheArmy
	Spy
)

const (
	RedOffset = Spy      // red ranks are base ranks + RedOffset
	Unknown   Rank = 31 // unidentified enemy piece in a player-restricted view
)

// Army is the sorted multiset of base ranks every side starts with.
var Army = [ArmySize]Rank{
	Flag,
	Private, Private, Private, Private, Private, Private,
	Sergeant, SecondLieutenant, FirstLieutenant, Captain, Major,
	LieutenantColonel, Colonel, BrigadierGeneral, MajorGeneral,
	LieutenantGeneral, General, GeneralOfTheArmy,
	Spy, Spy,
}

// Owner returns the side a rank belongs to, or None for blanks and unknowns.
func (r Rank) Owner() Player {
	switch {
	case r >= Flag && r <= Spy:
		return Blue
	case r > RedOffset && r <= RedOffset+Spy:
		return Red
	}
	return None
}

// Base strips the side offset, mapping both sides onto Flag..Spy.
func (r Rank) Base() Rank {
	if r.Owner() == Red {
		return r - RedOffset
	}
	return r
}

// For returns the board value of base rank r when owned by p.
func (r Rank) For(p Player) Rank {
	if p == Red && r != Blank {
		return r + RedOffset
	}
	return r
}

// Label renders a piece as its side letter and the uppercase hex of its base rank.
func (r Rank) Label() string {
	switch r.Owner() {
	case Blue:
		return fmt.Sprintf("b%X", int(r))
	case Red:
		return fmt.Sprintf("r%X", int(r.Base()))
	}
	if r == Unknown {
		return "??"
	}
	return "--"
}

var rankNames = [...]string{
	"Blank", "Flag", "Private", "Sergeant", "2nd Lieutenant", "1st Lieutenant",
	"Captain", "Major", "Lieutenant Colonel", "Colonel", "Brigadier General",
	"Major General", "Lieutenant General", "General", "General of the Army", "Spy",
}

func (r Rank) String() string {
	if r == Unknown {
		return "Unknown"
	}
	base := r.Base()
	if base < 0 || int(base) >= len(rankNames) {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	if p := r.Owner(); p != None {
		return strings.ToLower(p.String()) + " " + rankNames[base]
	}
	return rankNames[base]
}

// Player identifies a side. Blue moves first.
type Player int8

const (
	None Player = iota
	Blue
	Red
)

// Opponent returns the other side.
func (p Player) Opponent() Player {
	switch p {
	case Blue:
		return Red
	case Red:
		return Blue
	}
	return None
}

// Sign is +1 for Blue and -1 for Red, used to turn Blue-positive values into
// values from p's perspective.
func (p Player) Sign() float64 {
	if p == Red {
		return -1
	}
	return 1
}

// Index maps Blue and Red onto 0 and 1 for per-player arrays.
func (p Player) Index() int {
	if p == Red {
		return 1
	}
	return 0
}

func (p Player) String() string {
	switch p {
	case Blue:
		return "Blue"
	case Red:
		return "Red"
	}
	return "None"
}

// Outcome is the result of a single move as observed by both players.
type Outcome int8

const (
	Occupy Outcome = iota // moved into an empty square
	Win                   // challenger survives, defender removed
	Loss                  // challenger removed
	Draw                  // both removed
)

func (o Outcome) String() string {
	switch o {
	case Occupy:
		return "OCCUPY"
	case Win:
		return "WIN"
	case Loss:
		return "LOSS"
	case Draw:
		return "DRAW"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Resolve decides a clash between two base ranks, from the challenger's side.
// A private defeats a spy regardless of who attacks, and a flag moving onto a
// flag captures it; otherwise the higher rank wins and equal ranks trade.
func Resolve(challenger, defender Rank) Outcome {
	switch {
	case challenger == Private && defender == Spy:
		return Win
	case challenger == Spy && defender == Private:
		return Loss
	case challenger == Flag && defender == Flag:
		return Win
	case challenger > defender:
		return Win
	case challenger < defender:
		return Loss
	}
	return Draw
}
