package questions

import "sportstrivia/internal/models"

// SampleQuestions is the starter question bank loaded into an empty database
var SampleQuestions = []models.Question{
	{
		ID:            "football-1",
		Category:      "Football",
		Question:      "Which team won the first Super Bowl?",
		Options:       []string{"Green Bay Packers", "Kansas City Chiefs", "New York Jets", "Oakland Raiders"},
		CorrectAnswer: 0,
		Points:        10,
		Explanation:   "The Green Bay Packers defeated the Kansas City Chiefs 35-10 in Super Bowl I.",
	},
	{
		ID:            "football-2",
		Category:      "Football",
		Question:      "How many players are on the field for each team during a play?",
		Options:       []string{"10", "11", "12", "9"},
		CorrectAnswer: 1,
		Points:        10,
		Explanation:   "Each team has 11 players on the field at any given time during a play.",
	},
	{
		ID:            "football-3",
		Category:      "Football",
		Question:      "What is the maximum number of downs a team gets to advance 10 yards?",
		Options:       []string{"3", "4", "5", "6"},
		CorrectAnswer: 1,
		Points:        10,
		Explanation:   "A team gets 4 downs to advance the ball 10 yards and earn a first down.",
	},
	{
		ID:            "basketball-1",
		Category:      "Basketball",
		Question:      "Which NBA team holds the record for the most consecutive wins in a single season?",
		Options:       []string{"Los Angeles Lakers (33 wins)", "Miami Heat (27 wins)", "Golden State Warriors (28 wins)", "Milwaukee Bucks (20 wins)"},
		CorrectAnswer: 0,
		Points:        10,
		Explanation:   "The Lakers set this record with 33 consecutive wins during the 1971-72 season.",
	},
	{
		ID:            "basketball-2",
		Category:      "Basketball",
		Question:      "How many points is a shot worth from beyond the three-point line?",
		Options:       []string{"2 points", "3 points", "4 points", "1 point"},
		CorrectAnswer: 1,
		Points:        10,
		Explanation:   "Any shot made from beyond the three-point line is worth 3 points.",
	},
	{
		ID:            "basketball-3",
		Category:      "Basketball",
		Question:      "Who holds the record for most points scored in a single NBA game?",
		Options:       []string{"Michael Jordan", "Kobe Bryant", "Wilt Chamberlain", "LeBron James"},
		CorrectAnswer: 2,
		Points:        10,
		Explanation:   "Wilt Chamberlain scored 100 points in a single game on March 2, 1962.",
	},
	{
		ID:            "soccer-1",
		Category:      "Soccer",
		Question:      "How many players are on the field for each team in soccer?",
		Options:       []string{"10", "11", "12", "9"},
		CorrectAnswer: 1,
		Points:        10,
		Explanation:   "Each soccer team has 11 players on the field, including the goalkeeper.",
	},
	{
		ID:            "soccer-2",
		Category:      "Soccer",
		Question:      "Which country has won the most FIFA World Cups?",
		Options:       []string{"Germany", "Argentina", "Brazil", "Italy"},
		CorrectAnswer: 2,
		Points:        10,
		Explanation:   "Brazil has won the FIFA World Cup 5 times (1958, 1962, 1970, 1994, 2002).",
	},
	{
		ID:            "soccer-3",
		Category:      "Soccer",
		Question:      "What is the duration of a standard soccer match?",
		Options:       []string{"80 minutes", "90 minutes", "100 minutes", "120 minutes"},
		CorrectAnswer: 1,
		Points:        10,
		Explanation:   "A standard soccer match consists of two 45-minute halves for a total of 90 minutes.",
	},
	{
		ID:            "baseball-1",
		Category:      "Baseball",
		Question:      "How many strikes result in a strikeout?",
		Options:       []string{"2", "3", "4", "5"},
		CorrectAnswer: 1,
		Points:        10,
		Explanation:   "A batter is out after accumulating three strikes.",
	},
	{
		ID:            "baseball-2",
		Category:      "Baseball",
		Question:      "How many innings are in a standard baseball game?",
		Options:       []string{"7", "8", "9", "10"},
		CorrectAnswer: 2,
		Points:        10,
		Explanation:   "A standard baseball game consists of 9 innings.",
	},
	{
		ID:            "baseball-3",
		Category:      "Baseball",
		Question:      "Which team has won the most World Series championships?",
		Options:       []string{"Boston Red Sox", "New York Yankees", "St. Louis Cardinals", "Los Angeles Dodgers"},
		CorrectAnswer: 1,
		Points:        10,
		Explanation:   "The New York Yankees have won 27 World Series championships.",
	},
}
