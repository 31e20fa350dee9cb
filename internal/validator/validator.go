package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// エラーの項目名はjsonタグの名前にする
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// InvalidFieldsはvalidateタグに違反した項目を
// "shippingAddress.fullName"、"items[0].quantity" の形で返す。問題なければnil
func InvalidFields(v any) []string {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"body"}
	}

	fields := make([]string, 0, len(verrs))
	seen := map[string]bool{}
	for _, fe := range verrs {
		name := fe.Namespace()
		// 先頭の型名を落とす
		if i := strings.Index(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}
	return fields
}
