package core

import "strings"

// Label 是挂在 Item / RecommendContext 上的可解释标签。
// Value 记录取值（如召回源名称），Source 记录写入它的链路阶段（recall / filter）。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// MergeLabel 合并同名 Label：Value 以 '|'、Source 以 ',' 累积，已出现过的取值不重复追加。
//
// 同一物品被多个召回源命中时，recall_source 依次记录各召回源，
// 如 "mf|precomputed"；同一召回源重复命中不会改变标签。
func MergeLabel(existing, incoming Label) Label {
	return Label{
		Value:  appendDistinct(existing.Value, incoming.Value, "|"),
		Source: appendDistinct(existing.Source, incoming.Source, ","),
	}
}

func appendDistinct(joined, v, sep string) string {
	switch {
	case v == "":
		return joined
	case joined == "":
		return v
	}
	for _, part := range strings.Split(joined, sep) {
		if part == v {
			return joined
		}
	}
	return joined + sep + v
}
