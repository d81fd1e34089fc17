// Package pipeline implements the Pipeline Driver (C9): the top-level
// sequencer that wires Preprocess, Research, and Compose together and
// hands the result to the persistence collaborator (internal/outlet),
// grounded on generator/workflow.rs::launch.
package pipeline

import "strings"

// TargetLanguage selects the documentation language and drives the
// fixed section filenames the persistence collaborator writes,
// grounded on i18n.rs's TargetLanguage enum.
type TargetLanguage string

const (
	LanguageEnglish    TargetLanguage = "en"
	LanguageChinese    TargetLanguage = "zh"
	LanguageJapanese   TargetLanguage = "ja"
	LanguageKorean     TargetLanguage = "ko"
	LanguageGerman     TargetLanguage = "de"
	LanguageFrench     TargetLanguage = "fr"
	LanguageRussian    TargetLanguage = "ru"
	LanguageVietnamese TargetLanguage = "vi"
)

// ParseTargetLanguage normalizes a config string into a TargetLanguage,
// defaulting to English for anything unrecognized, mirroring i18n.rs's
// FromStr fallback behavior (the original logs a warning and falls back
// to English; the caller here is expected to do the same with the bool
// it returns).
func ParseTargetLanguage(s string) (TargetLanguage, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "en", "english":
		return LanguageEnglish, true
	case "zh", "chinese":
		return LanguageChinese, true
	case "ja", "japanese":
		return LanguageJapanese, true
	case "ko", "korean":
		return LanguageKorean, true
	case "de", "german":
		return LanguageGerman, true
	case "fr", "french":
		return LanguageFrench, true
	case "ru", "russian":
		return LanguageRussian, true
	case "vi", "vietnamese":
		return LanguageVietnamese, true
	default:
		return LanguageEnglish, false
	}
}

// DisplayName returns the human-readable language name shown in
// progress logs and the summary report.
func (l TargetLanguage) DisplayName() string {
	switch l {
	case LanguageChinese:
		return "中文"
	case LanguageJapanese:
		return "日本語"
	case LanguageKorean:
		return "한국어"
	case LanguageGerman:
		return "Deutsch"
	case LanguageFrench:
		return "Français"
	case LanguageRussian:
		return "Русский"
	case LanguageVietnamese:
		return "Tiếng Việt"
	default:
		return "English"
	}
}

// PromptInstruction returns the language directive appended to every
// agent prompt via agent.Executor.LanguageInstruction, grounded on
// i18n.rs's prompt_instruction.
func (l TargetLanguage) PromptInstruction() string {
	switch l {
	case LanguageChinese:
		return "请使用中文编写文档，确保语言表达准确、专业、易于理解。"
	case LanguageJapanese:
		return "日本語でドキュメントを作成してください。正確で専門的で理解しやすい言語表現を心がけてください。"
	case LanguageKorean:
		return "한국어로 문서를 작성해 주세요. 정확하고 전문적이며 이해하기 쉬운 언어 표현을 사용해 주세요."
	case LanguageGerman:
		return "Bitte schreiben Sie die Dokumentation auf Deutsch und stellen Sie sicher, dass die Sprache präzise, professionell und leicht verständlich ist."
	case LanguageFrench:
		return "Veuillez rédiger la documentation en français, en vous assurant que le langage soit précis, professionnel et facile à comprendre."
	case LanguageRussian:
		return "Пожалуйста, напишите документацию на русском языке, обеспечив точность, профессионализм и понятность изложения."
	case LanguageVietnamese:
		return "Hãy viết toàn bộ tài liệu bằng tiếng Việt tự nhiên, chính xác và dễ hiểu, sử dụng đúng thuật ngữ kỹ thuật."
	default:
		return "Please write the documentation in English, ensuring accurate, professional, and easy-to-understand language."
	}
}

var docFilenames = map[TargetLanguage]map[string]string{
	LanguageEnglish: {
		"overview":     "1.Overview.md",
		"architecture": "2.Architecture.md",
		"workflow":     "3.Workflow.md",
		"boundary":     "5.Boundary-Interfaces.md",
		"database":     "6.Database-Overview.md",
	},
	LanguageChinese: {
		"overview":     "1、项目概述.md",
		"architecture": "2、架构概览.md",
		"workflow":     "3、工作流程.md",
		"boundary":     "5、边界调用.md",
		"database":     "6、数据库概览.md",
	},
}

// DocFilename maps a logical section name to its output filename,
// grounded on i18n.rs's get_doc_filename. Languages without a curated
// table (anything beyond the pack's primary English/Chinese coverage)
// fall back to the English names rather than a bare "<section>.md", so
// every target language still produces the numbered 1-6 ordering the
// persistence layer depends on.
func (l TargetLanguage) DocFilename(section string) string {
	table, ok := docFilenames[l]
	if !ok {
		table = docFilenames[LanguageEnglish]
	}
	if name, ok := table[section]; ok {
		return name
	}
	return section + ".md"
}

// DeepExplorationDir returns the localized name of the deep-exploration
// directory, grounded on i18n.rs's get_directory_name("deep_exploration").
// The compose stage does not consult it: per-module key_modules documents
// are registered under a fixed deep_exploration/ directory.
func (l TargetLanguage) DeepExplorationDir() string {
	if l == LanguageChinese {
		return "4、深入探索"
	}
	return "4.Deep-Exploration"
}
