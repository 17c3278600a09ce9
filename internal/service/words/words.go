package words

import (
	"errors"
	"math/rand"
)

// Pair is one round's word assignment: civilians hold one word, spies the
// other. The two words must be distinct.
type Pair struct {
	CivilianWord string `json:"civilianWord"`
	SpyWord      string `json:"spyWord"`
}

const (
	DIFFICULTY_EASY   = "easy"
	DIFFICULTY_NORMAL = "normal"
	DIFFICULTY_HARD   = "hard"
)

type Source interface {
	RandomPair(difficulty string) (Pair, error)
}

type builtinSource struct{}

func NewBuiltinSource() Source {
	return builtinSource{}
}

func (builtinSource) RandomPair(difficulty string) (Pair, error) {
	list, ok := pairsByDifficulty[difficulty]
	if !ok {
		list = pairsByDifficulty[DIFFICULTY_NORMAL]
	}

	if len(list) == 0 {
		return Pair{}, errors.New("no word pairs available")
	}

	pair := list[rand.Intn(len(list))]

	// Civilian/spy sides are symmetric, flip them half the time so repeat
	// draws of the same pair don't leak which side is which.
	if rand.Intn(2) == 0 {
		pair.CivilianWord, pair.SpyWord = pair.SpyWord, pair.CivilianWord
	}

	return pair, nil
}

var pairsByDifficulty = map[string][]Pair{
	DIFFICULTY_EASY: {
		{"苹果", "梨"},
		{"牛奶", "豆浆"},
		{"太阳", "月亮"},
		{"猫", "狗"},
		{"米饭", "面条"},
		{"篮球", "足球"},
		{"老师", "医生"},
		{"汽车", "火车"},
		{"夏天", "冬天"},
		{"西瓜", "哈密瓜"},
	},
	DIFFICULTY_NORMAL: {
		{"包子", "饺子"},
		{"薯片", "薯条"},
		{"洗发水", "沐浴露"},
		{"口红", "唇膏"},
		{"小说", "散文"},
		{"警察", "保安"},
		{"麻雀", "燕子"},
		{"奶茶", "咖啡"},
		{"眉毛", "睫毛"},
		{"钢琴", "电子琴"},
		{"婚纱", "晚礼服"},
		{"橙子", "橘子"},
	},
	DIFFICULTY_HARD: {
		{"魔术师", "魔法师"},
		{"梦想", "理想"},
		{"双胞胎", "龙凤胎"},
		{"导演", "编剧"},
		{"发布会", "演唱会"},
		{"近视镜", "老花镜"},
		{"贵妃", "皇后"},
		{"作业", "试卷"},
		{"情人节", "七夕"},
		{"保温杯", "保温壶"},
	},
}
