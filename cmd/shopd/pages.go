package main

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	auth "github.com/goliatone/go-shop-auth"
)

var errSignInRequired = goerrors.New("sign in required", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

type pageView struct {
	Host    string             `json:"host"`
	Shop    *auth.TenantConfig `json:"shop"`
	Message string             `json:"message,omitempty"`
	User    *auth.Identity     `json:"user,omitempty"`
}

func viewFor(c router.Context) pageView {
	var v pageView
	if t, ok := auth.TenantFrom(c); ok {
		v.Host = t.Host
		v.Shop = t.Config
	}
	if msg, ok := auth.MessageFrom(c); ok {
		v.Message = msg
	}
	if claims, ok := auth.SessionFrom(c); ok {
		id := claims.Identity()
		v.User = &id
	}
	return v
}

func homePage(c router.Context) error {
	return c.JSON(http.StatusOK, viewFor(c))
}

func loginPage(c router.Context) error {
	return c.JSON(http.StatusOK, viewFor(c))
}

func accountPage(c router.Context) error {
	v := viewFor(c)
	if v.User == nil {
		return errSignInRequired
	}
	return c.JSON(http.StatusOK, v)
}
