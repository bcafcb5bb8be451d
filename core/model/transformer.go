package model

import (
	"github.com/YuminosukeSato/higgsml/core/table"
)

// Transformer はイベントテーブルを変換するインターフェース
type Transformer interface {
	// Transform は入力テーブルから新しいテーブルを生成する。入力は変更しない
	Transform(t *table.EventTable) (*table.EventTable, error)
}

// TransformerFunc は関数をTransformerとして扱うためのアダプタ
type TransformerFunc func(t *table.EventTable) (*table.EventTable, error)

// Transform はf(t)を呼び出す
func (f TransformerFunc) Transform(t *table.EventTable) (*table.EventTable, error) {
	return f(t)
}

// Chain は複数のTransformerを順に適用する
type Chain []Transformer

// Transform は各Transformerを順番に適用する
func (c Chain) Transform(t *table.EventTable) (*table.EventTable, error) {
	out := t
	for _, tr := range c {
		var err error
		out, err = tr.Transform(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
