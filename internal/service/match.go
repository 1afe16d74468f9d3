package service

import "strings"

// ==================== 搜索结果匹配打分 ====================

// 词袋匹配：把查询串按空格切成小写词项，统计词项作为子串
// 在候选标题中的命中数。命中数 >= 词项数的 50% 才算匹配。

// matchScore 返回标题命中的词项数
func matchScore(terms []string, title string) int {
	lower := strings.ToLower(title)
	score := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score++
		}
	}
	return score
}

// queryTerms 切分查询串
func queryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// MatchQuery 判断单个候选标题是否通过 50% 命中率
// 用于只校验首个结果的平台（如楽天）
func MatchQuery(query, title string) bool {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return false
	}
	return float64(matchScore(terms, title)) >= float64(len(terms))*0.5
}

// BestMatchIndex 在候选标题里选出最佳匹配的下标
// 取得分最高者，同分取结果序靠前者；最高分不足 50% 返回 -1
func BestMatchIndex(query string, titles []string) int {
	terms := queryTerms(query)
	if len(terms) == 0 || len(titles) == 0 {
		return -1
	}

	bestIdx := 0
	bestScore := matchScore(terms, titles[0])
	for i := 1; i < len(titles); i++ {
		if score := matchScore(terms, titles[i]); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if float64(bestScore) >= float64(len(terms))*0.5 {
		return bestIdx
	}
	return -1
}
