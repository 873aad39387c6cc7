// Package localization holds the static per-language strings used by a capture session.
package localization

import "strings"

// DefaultLanguage is served whenever a requested code has no entry.
const DefaultLanguage = "EN"

// Entry is the set of strings one session needs, resolved once at trigger time.
type Entry struct {
	Code             string
	VoiceID          string
	PromptText       string
	UILabel          string
	ProcessingPhrase string
	ErrorPhrase      string
}

var table = map[string]Entry{
	"PL": {
		VoiceID:          "pol_POL_default",
		PromptText:       "Jesteś asystentem AI, który pomaga osobie niewidomej. Twoje zadanie polega na odczytaniu zawartości ekranu, ekstrakcję kluczowych informacji, i poinformowania tej osoby o tym, co dzieje się na ekranie. Po Twojej analizie, aplikacja odczyta ją na głos. Bądź zwięzły. Zacznij od: 'Ekran pokazuje...'",
		UILabel:          "Odczyt\nEkranu",
		ProcessingPhrase: "Chwileczkę...",
		ErrorPhrase:      "Coś poszło nie tak, spróbuj ponownie",
	},
	"EN": {
		VoiceID:          "eng_GBR_default",
		PromptText:       "You are an AI assistant helping a blind person. Your task is to read the screen's content, extract key information, and inform the person about what is happening on the screen. After your analysis, the application will read it out loud. Be concise. Start with: 'The screen shows...'",
		UILabel:          "Read\nScreen",
		ProcessingPhrase: "One moment...",
		ErrorPhrase:      "Something went wrong, try again",
	},
	"ES": {
		VoiceID:          "spa_ESP_default",
		PromptText:       "Eres un asistente de IA que ayuda a una persona ciega. Tu tarea es leer el contenido de la pantalla, extraer información clave e informar a la persona sobre lo que está sucediendo en la pantalla. Después de tu análisis, la aplicación lo leerá en voz alta. Sé conciso. Comienza con: 'La pantalla muestra...'",
		UILabel:          "Leer\nPantalla",
		ProcessingPhrase: "Un momento...",
		ErrorPhrase:      "Algo salió mal, intenta de nuevo",
	},
	"PT": {
		VoiceID:          "por_BRA_default",
		PromptText:       "Você é um assistente de IA ajudando uma pessoa cega. Sua tarefa é ler o conteúdo da tela, extrair informações importantes e informar a pessoa sobre o que está acontecendo na tela. Após sua análise, o aplicativo lerá em voz alta. Seja conciso. Comece com: 'A tela mostra...'",
		UILabel:          "Ler\nTela",
		ProcessingPhrase: "Um momento...",
		ErrorPhrase:      "Algo deu errado, tente novamente",
	},
	"HI": {
		VoiceID:          "hin_IND_default",
		PromptText:       "आप एक AI सहायक हैं जो एक नेत्रहीन व्यक्ति की मदद कर रहे हैं। आपका कार्य स्क्रीन की सामग्री को पढ़ना, मुख्य जानकारी निकालना और व्यक्ति को बताना है कि स्क्रीन पर क्या हो रहा है। आपके विश्लेषण के बाद, एप्लिकेशन इसे जोर से पढ़ेगा। संक्षिप्त रहें। इस तरह शुरू करें: 'स्क्रीन दिखाती है...'",
		UILabel:          "स्क्रीन\nपढ़ें",
		ProcessingPhrase: "एक पल...",
		ErrorPhrase:      "कुछ गलत हुआ, फिर से कोशिश करें",
	},
	"BN": {
		VoiceID:          "ben_IND_default",
		PromptText:       "আপনি একজন AI সহায়ক যিনি একজন অন্ধ ব্যক্তিকে সাহায্য করছেন। আপনার কাজ হল স্ক্রিনের বিষয়বস্তু পড়া, মূল তথ্য বের করা এবং ব্যক্তিকে জানানো যে স্ক্রিনে কী ঘটছে। আপনার বিশ্লেষণের পরে, অ্যাপ্লিকেশনটি এটি জোরে পড়বে। সংক্ষিপ্ত থাকুন। এভাবে শুরু করুন: 'স্ক্রিনটি দেখায়...'",
		UILabel:          "স্ক্রীন\nপড়ুন",
		ProcessingPhrase: "একটু অপেক্ষা করুন...",
		ErrorPhrase:      "কিছু ভুল হয়েছে, আবার চেষ্টা করুন",
	},
	"AR": {
		VoiceID:          "ara_EGY_default",
		PromptText:       "أنت مساعد ذكاء اصطناعي تساعد شخصًا كفيفًا. مهمتك هي قراءة محتوى الشاشة واستخراج المعلومات الأساسية وإبلاغ الشخص بما يحدث على الشاشة. بعد تحليلك، سيقرأ التطبيق المحتوى بصوت عالٍ. كن موجزًا. ابدأ بـ: 'تظهر الشاشة...'",
		UILabel:          "قراءة\nالشاشة",
		ProcessingPhrase: "لحظة من فضلك...",
		ErrorPhrase:      "حدث خطأ ما، حاول مرة أخرى",
	},
	"SW": {
		VoiceID:          "swa_KEN_default",
		PromptText:       "Wewe ni msaidizi wa AI unayesaidia mtu asiyeona. Kazi yako ni kusoma maudhui ya skrini, kuchambua taarifa muhimu, na kumjulisha mtu kuhusu kinachoendelea kwenye skrini. Baada ya uchambuzi wako, programu itasoma kwa sauti. Fupi. Anza na: 'Skrini inaonyesha...'",
		UILabel:          "Soma\nSkrini",
		ProcessingPhrase: "Subiri kidogo...",
		ErrorPhrase:      "Kuna hitilafu, jaribu tena",
	},
	"UR": {
		VoiceID:          "urd_PAK_default",
		PromptText:       "آپ ایک AI معاون ہیں جو ایک نابینا شخص کی مدد کر رہے ہیں۔ آپ کا کام اسکرین کے مواد کو پڑھنا، اہم معلومات نکالنا اور شخص کو بتانا ہے کہ اسکرین پر کیا ہو رہا ہے۔ آپ کے تجزیے کے بعد، ایپلیکیشن اسے بلند آواز میں پڑھے گی۔ مختصر رہیں۔ اس طرح شروع کریں: 'اسکرین دکھاتی ہے...'",
		UILabel:          "اسکرین\nپڑھیں",
		ProcessingPhrase: "ایک لمحہ...",
		ErrorPhrase:      "کچھ غلط ہوا، دوبارہ کوشش کریں",
	},
	"VI": {
		VoiceID:          "vie_VNM_default",
		PromptText:       "Bạn là trợ lý AI giúp đỡ người mù. Nhiệm vụ của bạn là đọc nội dung màn hình, trích xuất thông tin quan trọng và thông báo cho người đó về những gì đang xảy ra trên màn hình. Sau khi phân tích, ứng dụng sẽ đọc to nội dung. Hãy ngắn gọn. Bắt đầu bằng: 'Màn hình hiển thị...'",
		UILabel:          "Đọc\nMàn hình",
		ProcessingPhrase: "Chờ chút...",
		ErrorPhrase:      "Có lỗi xảy ra, thử lại",
	},
	"ID": {
		VoiceID:          "ind_IDN_default",
		PromptText:       "Anda adalah asisten AI yang membantu orang buta. Tugas Anda adalah membaca konten layar, mengekstrak informasi penting, dan memberi tahu orang tersebut tentang apa yang terjadi di layar. Setelah analisis Anda, aplikasi akan membacanya dengan keras. Ringkas. Mulai dengan: 'Layar menampilkan...'",
		UILabel:          "Baca\nLayar",
		ProcessingPhrase: "Sebentar...",
		ErrorPhrase:      "Terjadi kesalahan, coba lagi",
	},
	"AM": {
		VoiceID:          "amh_ETH_default",
		PromptText:       "እርስዎ ዓይነ ስውር ሰውን የሚረዳ AI ረዳት ነዎት። ስራዎ የማያ ገጹን ይዘት ማንበብ፣ ቁልፍ መረጃን ማውጣት እና ሰውየው በማያ ገጹ ላይ ስለሚከሰተው ነገር ማሳወቅ ነው። ከትንተናዎ በኋላ አፕሊኬሽኑ በጮክ ያነባል። አጭር ይሁኑ። እንደዚህ ይጀምሩ: 'ማያ ገጹ ያሳያል...'",
		UILabel:          "ማያ ገጽ\nአንብብ",
		ProcessingPhrase: "ትንሽ ይጠብቁ...",
		ErrorPhrase:      "ስህተት ተፈጥሯል፣ እንደገና ይሞክሩ",
	},
	"TL": {
		VoiceID:          "tgl_PHL_default",
		PromptText:       "Ikaw ay isang AI assistant na tumutulong sa isang bulag na tao. Ang iyong tungkulin ay basahin ang nilalaman ng screen, kunin ang mahalagang impormasyon, at ipaalam sa tao kung ano ang nangyayari sa screen. Pagkatapos ng iyong pagsusuri, babasahin ng application ito nang malakas. Maging maigsi. Magsimula sa: 'Ang screen ay nagpapakita...'",
		UILabel:          "Basahin\nang Screen",
		ProcessingPhrase: "Sandali lang...",
		ErrorPhrase:      "May naganap na mali, subukan ulit",
	},
}

// Normalize upper-cases and trims a language code. It does not check membership.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Supported reports whether code has its own entry.
func Supported(code string) bool {
	_, ok := table[Normalize(code)]
	return ok
}

// Lookup resolves code, falling back to DefaultLanguage. The bool is false on fallback.
func Lookup(code string) (Entry, bool) {
	c := Normalize(code)
	e, ok := table[c]
	if !ok {
		c = DefaultLanguage
		e = table[c]
	}
	e.Code = c
	return e, ok
}

// Codes lists every supported language code.
func Codes() []string {
	out := make([]string, 0, len(table))
	for c := range table {
		out = append(out, c)
	}
	return out
}
