// Package validator wires go-playground/validator into gin binding
// Package validator 将 go-playground/validator 接入 gin 的参数绑定
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	ut "github.com/go-playground/universal-translator"
	validatorV10 "github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	Once     sync.Once
	Validate *validatorV10.Validate
}

var _ binding.StructValidator = (*CustomValidator)(nil)

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct validates structs and pointers to structs, other kinds pass through
// ValidateStruct 校验结构体或结构体指针，其它类型直接通过
func (v *CustomValidator) ValidateStruct(obj interface{}) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}
	v.lazyinit()
	return v.Validate.Struct(obj)
}

func (v *CustomValidator) Engine() interface{} {
	v.lazyinit()
	return v.Validate
}

func (v *CustomValidator) lazyinit() {
	v.Once.Do(func() {
		v.Validate = validatorV10.New()
		v.Validate.SetTagName("binding")
	})
}

// RegisterCustom registers custom validation tags
// RegisterCustom 注册自定义校验标签
//
//	notblank: string is not empty after trimming spaces
//	notblank: 去除首尾空白后不为空
func RegisterCustom(validate *validatorV10.Validate) error {
	return validate.RegisterValidation("notblank", notBlank)
}

func notBlank(fl validatorV10.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// RegisterTranslations adds messages of custom tags to a translator
// RegisterTranslations 为自定义标签注册翻译
func RegisterTranslations(validate *validatorV10.Validate, trans ut.Translator, locale string) error {
	text := "{0} must not be blank"
	if strings.HasPrefix(locale, "zh") {
		text = "{0}不能为空白"
	}
	return validate.RegisterTranslation("notblank", trans,
		func(ut ut.Translator) error {
			return ut.Add("notblank", text, true)
		},
		func(ut ut.Translator, fe validatorV10.FieldError) string {
			msg, _ := ut.T("notblank", fe.Field())
			return msg
		},
	)
}
