// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package locale renders member and staff facing texts in the community's
// language. English is the fallback for unknown languages and missing keys.
package locale

import (
	"embed"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/gofiber/contrib/fiberi18n/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

const rootPath = "locales"

//go:embed locales/*.json
var files embed.FS

// Supported lists the languages with a message file, fallback first.
var Supported = []language.Tag{language.English, language.BrazilianPortuguese}

// Args is the template data of a message.
type Args = map[string]any

var (
	bundle     *i18n.Bundle
	bundleOnce sync.Once
)

func defaultBundle() *i18n.Bundle {
	bundleOnce.Do(func() {
		bundle = i18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("json", sonic.Unmarshal)
		for _, tag := range Supported {
			path := rootPath + "/" + tag.String() + ".json"
			if _, err := bundle.LoadMessageFileFS(files, path); err != nil {
				panic("locale: load " + path + ": " + err.Error())
			}
		}
	})
	return bundle
}

// Valid reports whether lang is empty or a parseable BCP 47 tag.
func Valid(lang string) bool {
	if lang == "" {
		return true
	}
	_, err := language.Parse(lang)
	return err == nil
}

// T renders message id in lang. It never fails: a missing key or template
// error yields the English text, then the id itself.
func T(lang, id string, args Args) string {
	loc := i18n.NewLocalizer(defaultBundle(), lang, language.English.String())
	msg, err := loc.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: args})
	if err != nil || msg == "" {
		log.Debugw("missing translation", "lang", lang, "id", id, "error", err)
		return id
	}
	return msg
}

// Middleware resolves the caller's language from ?lang= or Accept-Language.
func Middleware() fiber.Handler {
	return fiberi18n.New(&fiberi18n.Config{
		RootPath:         rootPath,
		AcceptLanguages:  Supported,
		DefaultLanguage:  language.English,
		FormatBundleFile: "json",
		UnmarshalFunc:    sonic.Unmarshal,
		Loader:           &fiberi18n.EmbedLoader{FS: files},
	})
}

// Localize renders id for the current request, or fallback when the
// request carries no localizer or the key is missing.
func Localize(c *fiber.Ctx, id, fallback string) (msg string) {
	defer func() {
		if recover() != nil {
			msg = fallback
		}
	}()
	out, err := fiberi18n.Localize(c, id)
	if err != nil || out == "" {
		return fallback
	}
	return out
}
