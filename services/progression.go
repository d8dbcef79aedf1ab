package services

import "math"

// BasePointsPerLevel scales the progression curve: reaching level n+1 from n costs
// floor(BasePointsPerLevel * n^1.2) points.
const BasePointsPerLevel = 100

// pointsForNextLevel returns the points needed to go from currentLevel to currentLevel+1.
func pointsForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	return int64(float64(BasePointsPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// PointsForLevel is the cumulative score at which level starts. Level 1 starts at 0.
func PointsForLevel(level int) int64 {
	var total int64
	for l := 1; l < level; l++ {
		total += pointsForNextLevel(l)
	}
	return total
}

// LevelFor maps a cumulative score to its level.
func LevelFor(score int64) int {
	level := 1
	threshold := pointsForNextLevel(level)
	for score >= threshold {
		level++
		threshold += pointsForNextLevel(level)
	}
	return level
}

// LevelProgress reports how far score has advanced through its current level.
type LevelProgress struct {
	Level         int   `json:"level"`
	LevelStart    int64 `json:"level_start"`
	NextLevelAt   int64 `json:"next_level_at"`
	PointsToLevel int64 `json:"points_to_next_level"`
}

func ProgressFor(score int64) LevelProgress {
	level := LevelFor(score)
	start := PointsForLevel(level)
	next := start + pointsForNextLevel(level)
	return LevelProgress{
		Level:         level,
		LevelStart:    start,
		NextLevelAt:   next,
		PointsToLevel: next - score,
	}
}
