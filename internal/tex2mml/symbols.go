package tex2mml

// symbol maps a control word to a token element.
type symbol struct {
	tag  string // mi or mo
	char string
}

func mi(c string) symbol { return symbol{tag: "mi", char: c} }
func mo(c string) symbol { return symbol{tag: "mo", char: c} }

var symbols = map[string]symbol{
	// Greek
	"alpha": mi("α"), "beta": mi("β"), "gamma": mi("γ"), "delta": mi("δ"),
	"epsilon": mi("ϵ"), "varepsilon": mi("ε"), "zeta": mi("ζ"), "eta": mi("η"),
	"theta": mi("θ"), "vartheta": mi("ϑ"), "iota": mi("ι"), "kappa": mi("κ"),
	"lambda": mi("λ"), "mu": mi("μ"), "nu": mi("ν"), "xi": mi("ξ"),
	"omicron": mi("ο"), "pi": mi("π"), "varpi": mi("ϖ"), "rho": mi("ρ"),
	"varrho": mi("ϱ"), "sigma": mi("σ"), "varsigma": mi("ς"), "tau": mi("τ"),
	"upsilon": mi("υ"), "phi": mi("ϕ"), "varphi": mi("φ"), "chi": mi("χ"),
	"psi": mi("ψ"), "omega": mi("ω"),
	"Gamma": mi("Γ"), "Delta": mi("Δ"), "Theta": mi("Θ"), "Lambda": mi("Λ"),
	"Xi": mi("Ξ"), "Pi": mi("Π"), "Sigma": mi("Σ"), "Upsilon": mi("Υ"),
	"Phi": mi("Φ"), "Psi": mi("Ψ"), "Omega": mi("Ω"),

	// Letter-like
	"infty": mi("∞"), "partial": mi("∂"), "nabla": mi("∇"), "emptyset": mi("∅"),
	"varnothing": mi("∅"), "aleph": mi("ℵ"), "hbar": mi("ℏ"), "ell": mi("ℓ"),
	"Re": mi("ℜ"), "Im": mi("ℑ"), "wp": mi("℘"), "imath": mi("ı"), "jmath": mi("ȷ"),

	// Binary operators
	"pm": mo("±"), "mp": mo("∓"), "times": mo("×"), "div": mo("÷"),
	"cdot": mo("⋅"), "cdotp": mo("·"), "ast": mo("∗"), "star": mo("⋆"),
	"circ": mo("∘"), "bullet": mo("∙"), "oplus": mo("⊕"), "ominus": mo("⊖"),
	"otimes": mo("⊗"), "oslash": mo("⊘"), "odot": mo("⊙"), "cap": mo("∩"),
	"cup": mo("∪"), "wedge": mo("∧"), "land": mo("∧"), "vee": mo("∨"),
	"lor": mo("∨"), "setminus": mo("∖"), "dagger": mo("†"), "ddagger": mo("‡"),
	"amalg": mo("⨿"), "uplus": mo("⊎"), "sqcup": mo("⊔"), "sqcap": mo("⊓"),

	// Relations
	"leq": mo("≤"), "le": mo("≤"), "geq": mo("≥"), "ge": mo("≥"),
	"leqslant": mo("⩽"), "geqslant": mo("⩾"), "neq": mo("≠"), "ne": mo("≠"),
	"approx": mo("≈"), "equiv": mo("≡"), "sim": mo("∼"), "simeq": mo("≃"),
	"cong": mo("≅"), "propto": mo("∝"), "ll": mo("≪"), "gg": mo("≫"),
	"subset": mo("⊂"), "supset": mo("⊃"), "subseteq": mo("⊆"), "supseteq": mo("⊇"),
	"subsetneq": mo("⊊"), "supsetneq": mo("⊋"), "in": mo("∈"), "notin": mo("∉"),
	"ni": mo("∋"), "parallel": mo("∥"), "perp": mo("⊥"), "mid": mo("∣"),
	"vdash": mo("⊢"), "dashv": mo("⊣"), "models": mo("⊨"), "prec": mo("≺"),
	"succ": mo("≻"), "preceq": mo("⪯"), "succeq": mo("⪰"), "doteq": mo("≐"),
	"lt": mo("<"), "gt": mo(">"), "asymp": mo("≍"),

	// Arrows
	"to": mo("→"), "rightarrow": mo("→"), "leftarrow": mo("←"), "gets": mo("←"),
	"Rightarrow": mo("⇒"), "Leftarrow": mo("⇐"), "leftrightarrow": mo("↔"),
	"Leftrightarrow": mo("⇔"), "iff": mo("⟺"), "implies": mo("⟹"),
	"impliedby": mo("⟸"), "mapsto": mo("↦"), "longrightarrow": mo("⟶"),
	"longleftarrow": mo("⟵"), "Longrightarrow": mo("⟹"), "Longleftarrow": mo("⟸"),
	"longleftrightarrow": mo("⟷"), "Longleftrightarrow": mo("⟺"),
	"longmapsto": mo("⟼"), "uparrow": mo("↑"), "downarrow": mo("↓"),
	"Uparrow": mo("⇑"), "Downarrow": mo("⇓"), "updownarrow": mo("↕"),
	"nearrow": mo("↗"), "searrow": mo("↘"), "swarrow": mo("↙"), "nwarrow": mo("↖"),
	"rightharpoonup": mo("⇀"), "leftharpoonup": mo("↼"), "rightleftharpoons": mo("⇌"),
	"hookrightarrow": mo("↪"), "hookleftarrow": mo("↩"),

	// Logic and misc
	"forall": mo("∀"), "exists": mo("∃"), "nexists": mo("∄"), "neg": mo("¬"),
	"lnot": mo("¬"), "angle": mo("∠"), "triangle": mo("△"), "prime": mo("′"),
	"therefore": mo("∴"), "because": mo("∵"), "top": mo("⊤"), "bot": mo("⊥"),
	"ldots": mo("…"), "dots": mo("…"), "dotsc": mo("…"), "dotsb": mo("⋯"),
	"cdots": mo("⋯"), "vdots": mo("⋮"), "ddots": mo("⋱"), "colon": mo(":"),
	"degree": mo("°"), "checkmark": mo("✓"), "square": mo("□"), "Box": mo("□"),
	"diamond": mo("⋄"), "clubsuit": mo("♣"), "spadesuit": mo("♠"),
	"heartsuit": mo("♡"), "diamondsuit": mo("♢"), "sharp": mo("♯"), "flat": mo("♭"),

	// Delimiters
	"langle": mo("⟨"), "rangle": mo("⟩"), "lfloor": mo("⌊"), "rfloor": mo("⌋"),
	"lceil": mo("⌈"), "rceil": mo("⌉"), "vert": mo("|"), "Vert": mo("‖"),
	"lvert": mo("|"), "rvert": mo("|"), "lVert": mo("‖"), "rVert": mo("‖"),
	"backslash": mo(`\`), "lbrace": mo("{"), "rbrace": mo("}"),
	"lbrack": mo("["), "rbrack": mo("]"),

	// Large operators
	"sum": mo("∑"), "prod": mo("∏"), "coprod": mo("∐"), "int": mo("∫"),
	"iint": mo("∬"), "iiint": mo("∭"), "oint": mo("∮"), "bigcup": mo("⋃"),
	"bigcap": mo("⋂"), "bigoplus": mo("⨁"), "bigotimes": mo("⨂"),
	"bigodot": mo("⨀"), "bigvee": mo("⋁"), "bigwedge": mo("⋀"),
	"biguplus": mo("⨄"), "bigsqcup": mo("⨆"),

	// Escaped characters
	"{": mo("{"), "}": mo("}"), "|": mo("‖"), "%": mo("%"), "$": mo("$"),
	"#": mo("#"), "&": mo("&"), "_": mo("_"),
}

// functions render as upright multi-letter identifiers.
var functions = map[string]bool{
	"sin": true, "cos": true, "tan": true, "cot": true, "sec": true, "csc": true,
	"sinh": true, "cosh": true, "tanh": true, "coth": true,
	"arcsin": true, "arccos": true, "arctan": true,
	"log": true, "ln": true, "lg": true, "exp": true,
	"lim": true, "liminf": true, "limsup": true, "max": true, "min": true,
	"sup": true, "inf": true, "det": true, "dim": true, "ker": true, "deg": true,
	"gcd": true, "hom": true, "arg": true, "Pr": true,
}

// limitOperators take under/over scripts instead of sub/sup scripts.
var limitOperators = map[string]bool{
	"∑": true, "∏": true, "∐": true, "⋃": true, "⋂": true, "⨁": true,
	"⨂": true, "⨀": true, "⋁": true, "⋀": true, "⨄": true, "⨆": true,
	"lim": true, "liminf": true, "limsup": true, "max": true, "min": true,
	"sup": true, "inf": true, "det": true, "gcd": true, "Pr": true,
}

// accents maps accent commands to the mark placed over the base.
var accents = map[string]string{
	"hat": "^", "widehat": "^", "bar": "¯", "overline": "¯", "vec": "→",
	"overrightarrow": "→", "overleftarrow": "←", "dot": "˙", "ddot": "¨",
	"tilde": "~", "widetilde": "~", "check": "ˇ", "breve": "˘",
	"acute": "´", "grave": "`", "mathring": "˚",
}

// underAccents maps commands to the mark placed under the base.
var underAccents = map[string]string{
	"underline": "_", "underrightarrow": "→", "underleftarrow": "←",
}

// fonts maps font commands to MathML mathvariant values.
var fonts = map[string]string{
	"mathbf": "bold", "mathrm": "normal", "mathbb": "double-struck",
	"mathcal": "script", "mathscr": "script", "mathfrak": "fraktur",
	"mathit": "italic", "mathsf": "sans-serif", "mathtt": "monospace",
	"boldsymbol": "bold-italic", "bm": "bold-italic", "mathbfit": "bold-italic",
	"rm": "normal", "bf": "bold", "it": "italic",
}

// spaces maps spacing commands to mspace widths.
var spaces = map[string]string{
	",": "0.167em", ":": "0.222em", ">": "0.222em", ";": "0.278em",
	" ": "0.278em", "!": "-0.167em", "quad": "1em", "qquad": "2em",
	"thinspace": "0.167em", "medspace": "0.222em", "thickspace": "0.278em",
	"enspace": "0.5em",
}

// negations maps a symbol to its negated form under \not.
var negations = map[string]string{
	"=": "≠", "<": "≮", ">": "≯", "∈": "∉", "≡": "≢", "⊂": "⊄", "⊃": "⊅",
	"⊆": "⊈", "⊇": "⊉", "≤": "≰", "≥": "≱", "∼": "≁", "≈": "≉", "∣": "∤",
}

// matrixFences gives the delimiters wrapped around matrix environments.
var matrixFences = map[string][2]string{
	"pmatrix": {"(", ")"},
	"bmatrix": {"[", "]"},
	"Bmatrix": {"{", "}"},
	"vmatrix": {"|", "|"},
	"Vmatrix": {"‖", "‖"},
}

// tableEnvironments render their body as an mtable.
var tableEnvironments = map[string]bool{
	"matrix": true, "pmatrix": true, "bmatrix": true, "Bmatrix": true,
	"vmatrix": true, "Vmatrix": true, "smallmatrix": true, "cases": true,
	"array": true, "aligned": true, "align": true, "align*": true,
	"gathered": true, "gather": true, "gather*": true, "split": true,
	"eqnarray": true, "eqnarray*": true, "alignat": true, "alignat*": true,
}

// ignored commands produce no output.
var ignored = map[string]bool{
	"displaystyle": true, "textstyle": true, "scriptstyle": true,
	"scriptscriptstyle": true, "limits": true, "nolimits": true,
	"nonumber": true, "notag": true, "hline": true,
	"\\": true, "cr": true, "newline": true, "allowbreak": true, "hfill": true,
}

// bigDelimiters size the following delimiter; the size is dropped.
var bigDelimiters = map[string]bool{
	"big": true, "Big": true, "bigg": true, "Bigg": true,
	"bigl": true, "bigr": true, "Bigl": true, "Bigr": true,
	"biggl": true, "biggr": true, "Biggl": true, "Biggr": true,
	"bigm": true, "Bigm": true,
}
