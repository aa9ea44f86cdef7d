package grpc

import (
	"math"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"google.golang.org/protobuf/types/known/structpb"
)

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

// codeField reads an emailed one-time code. Anything but an integral number
// in int range is common.ErrInvalidToken, so "123456" or 123456.9 never
// reach the comparison.
func codeField(in *structpb.Struct, name string) (int, error) {
	v, ok := in.GetFields()[name].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, common.ErrInvalidToken
	}
	n := v.NumberValue
	if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, common.ErrInvalidToken
	}
	return int(n), nil
}

func userFields(u *models.User) map[string]any {
	return map[string]any{
		"id":            u.ID,
		"email":         u.Email,
		"name":          u.Name,
		"role":          u.Role,
		"provider":      string(u.Provider),
		"emailVerified": u.EmailVerified,
		"createdAt":     u.CreatedAt.Format(time.RFC3339),
		"updatedAt":     u.UpdatedAt.Format(time.RFC3339),
	}
}

func messageResponse(msg string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"message": msg})
}
