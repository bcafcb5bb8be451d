// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// データ読み込み、特徴量変換、外部学習器の実行で発生するエラーを構造化して扱います。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("higgsml-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// UndefinedFeatureWarning は特徴量の計算が未定義（ゼロ除算、負の平方根など）となり、
// 欠損値として扱われた場合の警告です。
type UndefinedFeatureWarning struct {
	Feature string
	Rows    int
	Total   int
}

func (w *UndefinedFeatureWarning) Error() string {
	return fmt.Sprintf("feature '%s' is undefined for %d of %d rows and is set to missing", w.Feature, w.Rows, w.Total)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UndefinedFeatureWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("feature", w.Feature).
		Int("rows", w.Rows).
		Int("total", w.Total).
		Str("type", "UndefinedFeatureWarning")
}

// NewUndefinedFeatureWarning は新しいUndefinedFeatureWarningを作成します。
func NewUndefinedFeatureWarning(feature string, rows, total int) *UndefinedFeatureWarning {
	return &UndefinedFeatureWarning{Feature: feature, Rows: rows, Total: total}
}

// RowsDroppedWarning は物理的に無効な行がフィルタで除外された場合の警告です。
type RowsDroppedWarning struct {
	Column  string
	Dropped int
	Total   int
}

func (w *RowsDroppedWarning) Error() string {
	return fmt.Sprintf("%d of %d rows dropped: non-positive or missing '%s'", w.Dropped, w.Total, w.Column)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *RowsDroppedWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("column", w.Column).
		Int("dropped", w.Dropped).
		Int("total", w.Total).
		Str("type", "RowsDroppedWarning")
}

// NewRowsDroppedWarning は新しいRowsDroppedWarningを作成します。
func NewRowsDroppedWarning(column string, dropped, total int) *RowsDroppedWarning {
	return &RowsDroppedWarning{Column: column, Dropped: dropped, Total: total}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// MissingColumnError は必要な列が入力テーブルに存在しない場合のエラーです。
type MissingColumnError struct {
	Op     string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("higgsml: %s: required column '%s' is missing", e.Op, e.Column)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *MissingColumnError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Str("type", "MissingColumnError")
}

// NewMissingColumnError は新しいMissingColumnErrorを作成し、スタックトレースを付与します。
func NewMissingColumnError(op, column string) error {
	return errors.WithStack(&MissingColumnError{Op: op, Column: column})
}

// LabelError はラベル列に想定外のカテゴリ値が含まれる場合のエラーです。
type LabelError struct {
	Column   string
	Row      int
	Value    string
	Expected []string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("higgsml: invalid value %q in label column '%s' at row %d (expected one of: %s)",
		e.Value, e.Column, e.Row, strings.Join(e.Expected, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *LabelError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Int("row", e.Row).
		Str("value", e.Value).
		Strs("expected", e.Expected).
		Str("type", "LabelError")
}

// NewLabelError は新しいLabelErrorを作成し、スタックトレースを付与します。
func NewLabelError(column string, row int, value string, expected ...string) error {
	return errors.WithStack(&LabelError{Column: column, Row: row, Value: value, Expected: expected})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("higgsml: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は設定値やパラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("higgsml: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("higgsml: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ProcessError は外部学習器のプロセスが異常終了した場合のエラーです。
type ProcessError struct {
	Name     string // モデル名
	Mode     string // "train", "train_predict", "predict"
	ExitCode int
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("higgsml: learner %s run '%s' exited with code %d: %v", e.Mode, e.Name, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("higgsml: learner %s run '%s' exited with code %d", e.Mode, e.Name, e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ProcessError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("name", e.Name).
		Str("mode", e.Mode).
		Int("exit_code", e.ExitCode).
		Str("type", "ProcessError")
}

// NewProcessError は新しいProcessErrorを作成し、スタックトレースを付与します。
func NewProcessError(name, mode string, exitCode int, err error) error {
	return errors.WithStack(&ProcessError{Name: name, Mode: mode, ExitCode: exitCode, Err: err})
}

// ModelError はモデル実行に関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("higgsml: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("higgsml: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// Join は複数のエラーを一つにまとめます。nilのみの場合はnilを返します。
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
