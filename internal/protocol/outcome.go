// Package protocol описывает стандартную форму результата шага.
//
// Каждый шаг последним действием пишет в контекст ровно один результат:
// код ответа, сообщение и (для ошибки) текст исключения процесса.
// Sequencer ветвится по ResponseCode.
package protocol

import (
	"strconv"

	"github.com/shaiso/Appo/internal/execution"
)

// Коды результата.
const (
	// CodeSuccess — шаг выполнен успешно.
	CodeSuccess = "200"

	// CodeRecordNotFound — запись в реестре не найдена.
	CodeRecordNotFound = "404"

	// CodeFlowError — общая ошибка процесса.
	CodeFlowError = "500"
)

// Сообщения результата, общие для нескольких шагов.
const (
	MsgSuccess = "success"
	MsgOK      = "OK"

	MsgInternalError = "internal error"
	MsgNoOutcome     = "task finished without outcome"
)

// Outcome — результат шага, прочитанный из контекста.
type Outcome struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IsSuccess возвращает true для кодов 2xx.
func (o Outcome) IsSuccess() bool {
	return IsSuccessCode(o.Code)
}

// IsSuccessCode проверяет, что код лежит в диапазоне [200,299].
func IsSuccessCode(code string) bool {
	n, err := strconv.Atoi(code)
	if err != nil {
		return false
	}
	return n >= 200 && n <= 299
}

// Success записывает успешный результат.
func Success(ec *execution.Context, message string) {
	ec.Set(execution.KeyResponseCode, CodeSuccess)
	ec.Set(execution.KeyResponse, message)
	ec.Delete(execution.KeyErrResponse)
	ec.Delete(execution.KeyFlowException)
	ec.MarkOutcome()
}

// Failure записывает ошибку с кодом из закрытого набора.
func Failure(ec *execution.Context, code, message string) {
	ec.Set(execution.KeyResponseCode, code)
	ec.Set(execution.KeyErrResponse, message)
	ec.Set(execution.KeyFlowException, message)
	ec.MarkOutcome()
}

// Remote записывает ответ удалённого сервиса как есть.
//
// Статус сохраняется текстом. Тело 2xx идёт в Response, остальное в ErrResponse.
// Следующий шаг реестра читает эти ключи как входные данные.
func Remote(ec *execution.Context, status int, body string) {
	code := strconv.Itoa(status)
	ec.Set(execution.KeyResponseCode, code)
	if IsSuccessCode(code) {
		ec.Set(execution.KeyResponse, body)
		ec.Delete(execution.KeyErrResponse)
		ec.Delete(execution.KeyFlowException)
	} else {
		ec.Set(execution.KeyErrResponse, body)
		ec.Set(execution.KeyFlowException, body)
	}
	ec.MarkOutcome()
}

// Current читает текущий результат из контекста.
func Current(ec *execution.Context) Outcome {
	code, _ := ec.Text(execution.KeyResponseCode)
	o := Outcome{Code: code}
	if o.IsSuccess() {
		o.Message, _ = ec.String(execution.KeyResponse)
	} else {
		o.Message, _ = ec.String(execution.KeyErrResponse)
	}
	return o
}
