package words

import "math/rand"

// 按难度分组的词库
var lists = map[string][]string{
	"easy":   {"apple", "dog", "ball"},
	"medium": {"rocket", "pencil", "mountain"},
	"hard":   {"architecture", "microscope", "astronaut"},
}

// Random 按难度均匀随机选词，难度未知时退回 easy
func Random(difficulty string) string {
	list, ok := lists[difficulty]
	if !ok || len(list) == 0 {
		list = lists["easy"]
	}
	return list[rand.Intn(len(list))]
}

// Contains 判断词是否属于指定难度的词库
func Contains(difficulty, word string) bool {
	for _, w := range lists[difficulty] {
		if w == word {
			return true
		}
	}
	return false
}

// Difficulties 返回所有可用难度
func Difficulties() []string {
	return []string{"easy", "medium", "hard"}
}
