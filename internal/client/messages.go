package client

// User-facing texts.
const (
	MsgLoginOK       = "ログインに成功しました！"
	MsgLoginFailed   = "ログインに失敗しました: "
	MsgLoginFallback = "ユーザー名またはパスワードが間違っています"
	MsgLoginError    = "ログイン中にエラーが発生しました"

	MsgSignupOK     = "ユーザー登録に成功しました！ログインしてください。"
	MsgSignupFailed = "登録に失敗しました: "
	MsgSignupError  = "登録中にエラーが発生しました"

	MsgLogout = "ログアウトしました"

	MsgListFailed = "商品一覧の取得に失敗しました"
	MsgListError  = "商品一覧の取得中にエラーが発生しました"

	MsgSearchFailed = "商品の検索に失敗しました: "
	MsgSearchError  = "商品検索中にエラーが発生しました"

	MsgShowFailed = "商品の取得に失敗しました: "
	MsgShowError  = "商品取得中にエラーが発生しました"

	MsgAddOK     = "商品を追加しました！"
	MsgAddFailed = "商品の追加に失敗しました: "
	MsgAddError  = "商品追加中にエラーが発生しました"

	MsgUpdateOK     = "商品を更新しました！"
	MsgUpdateFailed = "商品の更新に失敗しました: "
	MsgUpdateError  = "商品更新中にエラーが発生しました"

	MsgDeleteConfirm = "この商品を削除しますか？"
	MsgDeleteOK      = "商品を削除しました！"
	MsgDeleteFailed  = "商品の削除に失敗しました: "
	MsgDeleteError   = "商品削除中にエラーが発生しました"

	// MsgGenericFallback replaces a missing backend detail.
	MsgGenericFallback = "エラーが発生しました"
)
