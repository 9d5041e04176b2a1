package auth

import (
	"encoding/json"

	"StudySpace/internal/model"
	pkgerrors "StudySpace/pkg/errors"
)

// Credentials 表示归一化后的登录凭据，token 不透明，仅做有无判断。
type Credentials struct {
	Token string         `json:"token"`
	User  model.Identity `json:"user"`
}

// rawUser 兼容历史版本的用户字段：id/_id/userId 都出现过。
type rawUser struct {
	ID     string `json:"id"`
	AltID  string `json:"_id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (u rawUser) identity() (model.Identity, error) {
	id := u.ID
	if id == "" {
		id = u.AltID
	}
	if id == "" {
		id = u.UserID
	}

	if id == "" || u.Email == "" {
		return model.Identity{}, pkgerrors.AuthIdentityIncomplete
	}

	role := model.Role(u.Role)
	if role == "" {
		role = model.RoleStudent
	}

	return model.Identity{
		ID:    id,
		Name:  u.Name,
		Email: u.Email,
		Role:  role,
	}, nil
}

// loginShape 登录响应在多轮后端迭代中出现过三种形状，按序探测，第一个命中的生效。
// 命中指结构命中；命中后字段缺失按缺失种类报错，不混为一个笼统错误。
type loginShape struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
	Data  json.RawMessage `json:"data"`
}

type loginData struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
	rawUser
}

// NormalizeLogin 将任一历史形状的登录响应归一化为 Credentials。
// 形状一：平铺 { token, user }
// 形状二：嵌套 { data: { token, user } }
// 形状三：遗留 { data: { token, id, name, email, role } }
func NormalizeLogin(raw []byte) (Credentials, error) {
	var shape loginShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return Credentials{}, pkgerrors.AuthShapeUnknown
	}

	// 形状一
	if present(shape.User) {
		return buildCredentials(shape.Token, shape.User)
	}

	if !present(shape.Data) {
		return Credentials{}, pkgerrors.AuthShapeUnknown
	}

	var data loginData
	if err := json.Unmarshal(shape.Data, &data); err != nil {
		return Credentials{}, pkgerrors.AuthShapeUnknown
	}

	// 形状二
	if present(data.User) {
		return buildCredentials(data.Token, data.User)
	}

	// 形状三：data 本身就是平铺的用户字段
	if data.Token == "" {
		return Credentials{}, pkgerrors.AuthTokenMissing
	}

	identity, err := data.rawUser.identity()
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{Token: data.Token, User: identity}, nil
}

func buildCredentials(token string, userRaw json.RawMessage) (Credentials, error) {
	if token == "" {
		return Credentials{}, pkgerrors.AuthTokenMissing
	}

	var user rawUser
	if err := json.Unmarshal(userRaw, &user); err != nil {
		return Credentials{}, pkgerrors.AuthIdentityIncomplete
	}

	identity, err := user.identity()
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{Token: token, User: identity}, nil
}

// present 判断一个可选的 JSON 字段是否真实存在（排除缺失与 null）。
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
